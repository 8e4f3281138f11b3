package keyer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaddlesToGpio(t *testing.T) {
	assert.Equal(t, GPIOBits(0), paddlesToGpio(Paddles{}))
	assert.Equal(t, GPIODit, paddlesToGpio(Paddles{Dit: true}))
	assert.Equal(t, GPIODah, paddlesToGpio(Paddles{Dah: true}))
	assert.Equal(t, GPIODit|GPIODah, paddlesToGpio(Paddles{Dit: true, Dah: true}))
}

func TestSamplePaddlesRoundTrip(t *testing.T) {
	s := Sample{Gpio: GPIODit | GPIODah}
	assert.Equal(t, Paddles{Dit: true, Dah: true}, s.Paddles())
}

func TestSampleSilence(t *testing.T) {
	s := Sample{Flags: FlagSilence, ConfigGen: 42}
	ticks, ok := s.Silence()
	assert.True(t, ok)
	assert.Equal(t, uint16(42), ticks)

	plain := Sample{}
	_, ok = plain.Silence()
	assert.False(t, ok)
}

func TestDeriveEdges(t *testing.T) {
	prev := Sample{Gpio: GPIODit, LocalKey: true}

	same := deriveEdges(prev, Sample{Gpio: GPIODit, LocalKey: true})
	assert.False(t, hasEdge(same))

	gpioChanged := deriveEdges(prev, Sample{Gpio: GPIODah, LocalKey: true})
	assert.True(t, gpioChanged.Flags&FlagGPIOEdge != 0)
	assert.True(t, hasEdge(gpioChanged))

	keyChanged := deriveEdges(prev, Sample{Gpio: GPIODit, LocalKey: false})
	assert.True(t, keyChanged.Flags&FlagLocalEdge != 0)
}

func TestObservableEqualIgnoresNonObservableFlags(t *testing.T) {
	a := Sample{Gpio: GPIODit, LocalKey: true, AudioLevel: 10, Flags: FlagConfigChange}
	b := Sample{Gpio: GPIODit, LocalKey: true, AudioLevel: 10}
	assert.True(t, observableEqual(a, b))

	c := Sample{Gpio: GPIODit, LocalKey: true, AudioLevel: 11}
	assert.False(t, observableEqual(a, c))
}
