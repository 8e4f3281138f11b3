package hal

import (
	"bufio"
	"fmt"

	"github.com/pkg/term"
)

// SerialConsole is a keyer.TextInput reading newline-delimited messages off
// a serial line, grounded on the teacher's src/serial_port.go use of the
// same library for its TNC control port.
type SerialConsole struct {
	t   *term.Term
	r   *bufio.Reader
}

// NewSerialConsole opens device (e.g. "/dev/ttyUSB0") in raw mode at baud.
func NewSerialConsole(device string, baud int) (*SerialConsole, error) {
	t, err := term.Open(device, term.Speed(baud), term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("hal: open serial console %s: %w", device, err)
	}
	return &SerialConsole{t: t, r: bufio.NewReader(t)}, nil
}

// ReadMessage reads one newline-terminated message from the console.
func (s *SerialConsole) ReadMessage() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("hal: read serial console: %w", err)
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}

// Close restores the terminal and closes the underlying file.
func (s *SerialConsole) Close() error {
	s.t.Restore()
	return s.t.Close()
}
