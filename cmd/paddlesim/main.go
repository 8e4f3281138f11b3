// Command paddlesim is a development harness: it opens a pseudo-terminal,
// drives the text sender on a 1ms tick with no real hardware attached, and
// writes each key-down transition to the pty ("_" on key-down, " " on
// key-up). No iambic FSM or keying stream is involved. Grounded on the
// teacher's own pty.Open use in src/kiss.go for its KISS-over-pty support.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/creack/pty"

	"code.hybscloud.com/atomix"

	"github.com/w1mrk/cwkeyer/keyer"
)

func main() {
	wpm := flag.Int("wpm", 20, "Simulated sending speed in WPM.")
	flag.Parse()

	text := "CQ CQ DE W1MRK <AR>"
	if flag.NArg() > 0 {
		text = flag.Arg(0)
	}

	ptmx, pts, err := pty.Open()
	if err != nil {
		fmt.Fprintln(os.Stderr, "paddlesim: open pty:", err)
		os.Exit(1)
	}
	defer ptmx.Close()
	defer pts.Close()

	fmt.Fprintf(os.Stderr, "paddlesim: slave pty at %s (attach a terminal to watch raw output)\n", pts.Name())

	go io.Copy(io.Discard, ptmx) //nolint:errcheck

	var abort atomix.Bool
	sender := keyer.NewSender(&abort)
	if err := sender.Start(keyer.SenderConfig{WPM: *wpm}, text); err != nil {
		fmt.Fprintln(os.Stderr, "paddlesim: start:", err)
		os.Exit(1)
	}

	w := bufio.NewWriter(ptmx)
	defer w.Flush()

	startUs := time.Now().UnixMicro()
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	lastKey := false
	for sender.Busy() {
		<-ticker.C
		nowUs := startUs + time.Since(time.UnixMicro(startUs)).Microseconds()
		sender.Tick(nowUs)
		down := sender.KeyDown()
		if down != lastKey {
			if down {
				w.WriteString("_") //nolint:errcheck
			} else {
				w.WriteString(" ") //nolint:errcheck
			}
			w.Flush()
			lastKey = down
		}
	}
	fmt.Fprintln(os.Stderr, "\npaddlesim: send complete")
}
