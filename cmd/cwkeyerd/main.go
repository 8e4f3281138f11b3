// Command cwkeyerd runs the real-time iambic keyer core against a GPIO
// paddle, an audio sidetone output, and an optional serial text-input
// console, with configuration persisted to YAML and mDNS self-announcement.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.hybscloud.com/atomix"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/w1mrk/cwkeyer/hal"
	"github.com/w1mrk/cwkeyer/keyer"
)

const (
	streamCapacity = 1 << 14 // samples; must be a power of two (spec §4.1)
	tickMicros     = 1000    // 1kHz hard-RT tick
	sampleRate     = 8000
	framesPerTick  = sampleRate / 1000 // 8 audio samples per 1ms tick
)

func main() {
	var (
		gpioChip     = pflag.StringP("gpio-chip", "g", "gpiochip0", "gpiochip device for paddle/key lines.")
		ditLine      = pflag.Int("dit-line", 17, "GPIO offset for the dit paddle contact.")
		dahLine      = pflag.Int("dah-line", 27, "GPIO offset for the dah paddle contact.")
		keyLine      = pflag.Int("key-line", 22, "GPIO offset for the keyed transmit line.")
		serialDevice = pflag.StringP("serial-device", "s", "", "Serial console device for text input; empty disables it.")
		serialBaud   = pflag.Int("serial-baud", 9600, "Serial console baud rate.")
		configFile   = pflag.StringP("config-file", "c", "cwkeyerd.yaml", "Persisted configuration file.")
		logDir       = pflag.StringP("log-dir", "l", "./logs", "Directory for decoded-text log files.")
		mdnsName     = pflag.String("mdns-name", "cwkeyerd", "mDNS service name to announce.")
		verbose      = pflag.BoolP("verbose", "v", false, "Enable debug logging.")
	)
	pflag.Parse()

	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{ReportTimestamp: true})
	if *verbose {
		logger.SetLevel(charmlog.DebugLevel)
	}

	if err := run(runConfig{
		gpioChip: *gpioChip, ditLine: *ditLine, dahLine: *dahLine, keyLine: *keyLine,
		serialDevice: *serialDevice, serialBaud: *serialBaud,
		configFile: *configFile, logDir: *logDir, mdnsName: *mdnsName,
	}, logger); err != nil {
		logger.Fatal("cwkeyerd exiting", "err", err)
	}
}

type runConfig struct {
	gpioChip                        string
	ditLine, dahLine, keyLine       int
	serialDevice                    string
	serialBaud                      int
	configFile, logDir, mdnsName    string
}

func run(rc runConfig, logger *charmlog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := hal.NewYAMLConfigStore(rc.configFile)
	persisted, err := store.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := keyer.NewConfig()
	if persisted.WPM != 0 {
		if err := cfg.Restore(persisted); err != nil {
			logger.Warn("rejected persisted config field", "err", err)
		}
	}

	gpio, err := hal.NewPaddleGPIO(rc.gpioChip, rc.ditLine, rc.dahLine, rc.keyLine)
	if err != nil {
		return fmt.Errorf("open gpio: %w", err)
	}
	defer gpio.Close()

	audio, err := hal.NewPortAudioSink(sampleRate, framesPerTick)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer audio.Close()

	decodeLog, err := hal.NewDecodeLogger(rc.logDir, "cw-%Y%m%d.log")
	if err != nil {
		return fmt.Errorf("open decode log: %w", err)
	}
	defer decodeLog.Close()

	announcer, err := hal.NewDNSSDForwarder(0)
	if err != nil {
		return fmt.Errorf("open mdns announcer: %w", err)
	}
	if err := announcer.Announce(rc.mdnsName); err != nil {
		logger.Warn("mdns announce failed", "err", err)
	}
	defer announcer.Shutdown()

	var textInput *hal.SerialConsole
	if rc.serialDevice != "" {
		textInput, err = hal.NewSerialConsole(rc.serialDevice, rc.serialBaud)
		if err != nil {
			return fmt.Errorf("open serial console: %w", err)
		}
		defer textInput.Close()
	}

	stream, err := keyer.NewStream(streamCapacity)
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	fault := &keyer.FaultState{}
	hardRT := keyer.NewHardRTConsumer(stream, fault, 4)
	bestEffort := keyer.NewBestEffortConsumer(stream, streamCapacity/2)
	decoder := keyer.NewDecoder(bestEffort, tickMicros, 20, 512)
	ptt := keyer.NewPTT(cfg.PTTTailMicros())
	sidetone := keyer.NewSidetone(uint32(cfg.SidetoneHz()), sampleRate, 40)
	fsm := keyer.NewFSM()
	clock := hal.SystemClock{}

	// abort is set whenever the paddles are touched, so the text sender
	// yields to manual keying (spec §4.9/§5 cancellation).
	var abort atomix.Bool
	sender := keyer.NewSender(&abort)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runHardRT(ctx, logger, clock, cfg, gpio, audio, stream, hardRT, fault, ptt, sidetone, fsm, sender, &abort)
	})
	g.Go(func() error {
		return runSender(ctx, clock, sender)
	})
	g.Go(func() error {
		return runDecoder(ctx, logger, clock, decoder, decodeLog)
	})
	if textInput != nil {
		g.Go(func() error {
			return runTextInput(ctx, logger, textInput, cfg, sender)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		return store.Save(cfg.Snapshot())
	})

	return g.Wait()
}

// runHardRT is the 1kHz loop: sample paddles, advance the iambic FSM, push
// into the stream, drive the key line, sidetone, and PTT (spec §4.1-§4.8).
func runHardRT(ctx context.Context, logger *charmlog.Logger, clock hal.SystemClock, cfg *keyer.Config,
	gpio *hal.PaddleGPIO, audio *hal.PortAudioSink, stream *keyer.Stream, consumer *keyer.HardRTConsumer,
	fault *keyer.FaultState, ptt *keyer.PTT, sidetone *keyer.Sidetone, fsm *keyer.FSM,
	sender *keyer.Sender, abort *atomix.Bool) error {

	ticker := time.NewTicker(tickMicros * time.Microsecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			stream.Flush()
			return nil
		case <-ticker.C:
		}

		nowUs := clock.NowMicros()
		paddles, err := gpio.ReadPaddles()
		if err != nil {
			logger.Error("gpio read failed", "err", err)
			continue
		}
		abort.StoreRelease(paddles.Dit || paddles.Dah)

		sample := fsm.Tick(cfg.IambicConfig(), nowUs, paddles)
		sample.LocalKey = sample.LocalKey || sender.KeyDown()
		sample.ConfigGen = cfg.ConfigGenTag()
		stream.Push(sample)

		// While the fault is latched, the key line, PTT and sidetone stay
		// silent until it is cleared.
		keyed := sample.LocalKey && !fault.Active()
		ptt.Tick(nowUs)
		if keyed {
			ptt.AudioSample(nowUs)
		}
		if err := gpio.SetKeyLine(ptt.On() && keyed); err != nil {
			logger.Error("gpio key-line write failed", "err", err)
		}

		sidetone.SetKey(keyed)
		buf := make([]int16, framesPerTick)
		for i := range buf {
			buf[i] = sidetone.NextSample()
		}
		if err := audio.WriteSamples(buf); err != nil {
			logger.Error("audio write failed", "err", err)
		}

		result, _ := consumer.Tick()
		if result == keyer.ResultFault {
			logger.Error("hard-rt consumer fault", "code", fault.Code(), "data", fault.Data())
			ptt.ForceOff()
			sidetone.Reset()
		}
	}
}

// runDecoder drains the best-effort consumer through the Morse decoder and
// writes recognised characters to the decode log (spec §4.10).
func runDecoder(ctx context.Context, logger *charmlog.Logger, clock hal.SystemClock, decoder *keyer.Decoder, out *hal.DecodeLogger) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		decoder.Tick(clock.NowMicros())
		for {
			ch, ok := decoder.PopOne()
			if !ok {
				break
			}
			if err := out.WriteDecoded(ch); err != nil {
				logger.Error("decode log write failed", "err", err)
			}
		}
	}
}

// runSender advances the text-to-Morse sender on its own ~10ms tick,
// distinct from the hard-RT 1ms tick (spec §4.9); runHardRT polls
// sender.KeyDown() each hard-RT tick and merges it with the iambic output.
func runSender(ctx context.Context, clock hal.SystemClock, sender *keyer.Sender) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		sender.Tick(clock.NowMicros())
	}
}

func runTextInput(ctx context.Context, logger *charmlog.Logger, in *hal.SerialConsole, cfg *keyer.Config, sender *keyer.Sender) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		msg, err := in.ReadMessage()
		if err != nil {
			return fmt.Errorf("serial console: %w", err)
		}
		if err := sender.Start(keyer.SenderConfig{WPM: cfg.IambicConfig().WPM}, msg); err != nil {
			logger.Warn("text send rejected", "err", err)
		}
	}
}
