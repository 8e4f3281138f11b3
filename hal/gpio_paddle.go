package hal

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/w1mrk/cwkeyer/keyer"
)

// PaddleGPIO drives the keyer.GPIO port over a Linux gpiochip device:
// two input lines for the dit/dah paddle contacts and one output line for
// the keyed transmitter line. Grounded on the teacher's CM108 GPIO PTT
// support (src/cm108.go), adapted from libusb HID bit-banging to the
// kernel gpiocdev character device.
type PaddleGPIO struct {
	dit *gpiocdev.Line
	dah *gpiocdev.Line
	key *gpiocdev.Line
}

// NewPaddleGPIO requests the dit/dah input lines and the key output line
// on chip (e.g. "gpiochip0"), with the paddle inputs pulled up and active
// low, matching a grounded-contact iambic paddle.
func NewPaddleGPIO(chip string, ditOffset, dahOffset, keyOffset int) (*PaddleGPIO, error) {
	dit, err := gpiocdev.RequestLine(chip, ditOffset, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithBothEdges)
	if err != nil {
		return nil, fmt.Errorf("hal: request dit line: %w", err)
	}
	dah, err := gpiocdev.RequestLine(chip, dahOffset, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithBothEdges)
	if err != nil {
		dit.Close()
		return nil, fmt.Errorf("hal: request dah line: %w", err)
	}
	key, err := gpiocdev.RequestLine(chip, keyOffset, gpiocdev.AsOutput(0))
	if err != nil {
		dit.Close()
		dah.Close()
		return nil, fmt.Errorf("hal: request key line: %w", err)
	}
	return &PaddleGPIO{dit: dit, dah: dah, key: key}, nil
}

// ReadPaddles samples both paddle lines. Contacts are active low, so a
// logical 0 on the line means the paddle is pressed.
func (g *PaddleGPIO) ReadPaddles() (keyer.Paddles, error) {
	ditVal, err := g.dit.Value()
	if err != nil {
		return keyer.Paddles{}, fmt.Errorf("hal: read dit line: %w", err)
	}
	dahVal, err := g.dah.Value()
	if err != nil {
		return keyer.Paddles{}, fmt.Errorf("hal: read dah line: %w", err)
	}
	return keyer.Paddles{Dit: ditVal == 0, Dah: dahVal == 0}, nil
}

// SetKeyLine drives the keyed output line.
func (g *PaddleGPIO) SetKeyLine(down bool) error {
	v := 0
	if down {
		v = 1
	}
	if err := g.key.SetValue(v); err != nil {
		return fmt.Errorf("hal: set key line: %w", err)
	}
	return nil
}

// Close releases all three gpiocdev line requests.
func (g *PaddleGPIO) Close() error {
	g.dit.Close()
	g.dah.Close()
	return g.key.Close()
}
