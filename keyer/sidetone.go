package keyer

import "math"

// sineTableSize matches the teacher's AFSK tone generator: a 256-entry
// table indexed by the top 8 bits of a 32-bit phase accumulator.
const sineTableSize = 256

// fadeScaleBits is the fixed-point precision used for the envelope scale
// factor (spec §4.7: "15-bit multiply then >>15").
const fadeScaleBits = 15

// Envelope names the sidetone's fade state machine (spec §4.7).
type Envelope int

const (
	EnvSilent Envelope = iota
	EnvFadeIn
	EnvSustain
	EnvFadeOut
)

// Sidetone is a phase-accumulator tone generator with a click-free linear
// fade envelope, driven once per output sample by the hard-RT consumer
// (spec §4.7).
type Sidetone struct {
	sineTable [sineTableSize]int16

	phaseInc uint32
	phase    uint32

	fadeLen int
	fadePos int
	env     Envelope
	keyDown bool
}

// NewSidetone builds a generator for freqHz at sampleRate, with a fade
// ramp fadeLenSamples long (e.g. 40 samples at 8kHz = 5ms).
func NewSidetone(freqHz, sampleRate uint32, fadeLenSamples int) *Sidetone {
	s := &Sidetone{fadeLen: fadeLenSamples}
	// phase_inc = (freq_hz << 32) / sample_rate, exact to one LSB for any
	// 32-bit frequency, no floating point in the hot path (spec §4.7).
	s.phaseInc = uint32((uint64(freqHz) << 32) / uint64(sampleRate))
	for i := range s.sineTable {
		angle := (float64(i) / sineTableSize) * 2 * math.Pi
		s.sineTable[i] = int16(math.Sin(angle) * 32767.0)
	}
	return s
}

// SetKey toggles the key-down state that drives the envelope FSM. Toggling
// mid-ramp inverts fadePos so the envelope stays continuous across the
// direction change (spec §4.7 "smooth reversal").
func (s *Sidetone) SetKey(down bool) {
	if down == s.keyDown {
		return
	}
	s.keyDown = down
	switch {
	case down && s.env == EnvSilent:
		s.env = EnvFadeIn
		s.fadePos = 0
	case down && s.env == EnvFadeOut:
		s.fadePos = s.fadeLen - s.fadePos
		s.env = EnvFadeIn
	case !down && s.env == EnvSustain:
		s.env = EnvFadeOut
		s.fadePos = 0
	case !down && s.env == EnvFadeIn:
		s.fadePos = s.fadeLen - s.fadePos
		s.env = EnvFadeOut
	}
}

// NextSample advances the phase accumulator and envelope by one sample and
// returns the next clipped signed-16-bit PCM value.
func (s *Sidetone) NextSample() int16 {
	s.phase += s.phaseInc
	idx := s.phase >> 24
	raw := int32(s.sineTable[idx])

	if s.env == EnvSilent {
		return 0
	}

	var scaleQ15 int32
	switch s.env {
	case EnvSustain:
		scaleQ15 = 1 << fadeScaleBits
	case EnvFadeIn:
		scaleQ15 = int32(s.fadePos) * (1 << fadeScaleBits) / int32(s.fadeLen)
	case EnvFadeOut:
		scaleQ15 = int32(s.fadeLen-s.fadePos) * (1 << fadeScaleBits) / int32(s.fadeLen)
	}

	out := (raw * scaleQ15) >> fadeScaleBits

	switch s.env {
	case EnvFadeIn:
		s.fadePos++
		if s.fadePos >= s.fadeLen {
			s.env = EnvSustain
			s.fadePos = s.fadeLen
		}
	case EnvFadeOut:
		s.fadePos++
		if s.fadePos >= s.fadeLen {
			s.env = EnvSilent
			s.fadePos = 0
		}
	}

	if out > math.MaxInt16 {
		out = math.MaxInt16
	}
	if out < math.MinInt16 {
		out = math.MinInt16
	}
	return int16(out)
}

// State reports the generator's current fade state, for tests.
func (s *Sidetone) State() Envelope { return s.env }

// Reset drives the generator silent immediately, discarding any in-flight
// fade. Used by fault handling (spec §5: "sidetone envelope reset").
func (s *Sidetone) Reset() {
	s.env = EnvSilent
	s.fadePos = 0
	s.keyDown = false
}
