// Package keyer implements the real-time core of an iambic Morse keyer:
// the keying stream, the iambic finite-state machine, the hard-RT and
// best-effort consumers that ride on the stream, the fault tripwire, the
// sidetone generator, the PTT tail-timer, the text-to-Morse sender, and the
// Morse decoder.
package keyer

// GPIOBits is the paddle bitfield carried in a Sample's Gpio field.
type GPIOBits uint8

const (
	GPIODit GPIOBits = 1 << iota
	GPIODah
)

// Flags is the per-sample bitset (spec §3).
type Flags uint8

const (
	FlagGPIOEdge Flags = 1 << iota
	FlagConfigChange
	FlagTxStart
	FlagRxStart
	FlagSilence
	FlagLocalEdge
)

// Sample is the fixed 6-byte keying record that flows through the stream.
//
// A record with FlagSilence set is a run-length marker: ConfigGen holds the
// number of ticks the previously observed state persisted, not a
// configuration generation number. Consumers that only care about state
// changes must skip silence records; consumers that reconstruct exact
// timing use the count.
type Sample struct {
	Gpio       GPIOBits
	LocalKey   bool
	AudioLevel uint8
	Flags      Flags
	ConfigGen  uint16
}

// Silence reports whether this sample is a run-length silence marker and,
// if so, the number of ticks it represents.
func (s Sample) Silence() (ticks uint16, ok bool) {
	if s.Flags&FlagSilence == 0 {
		return 0, false
	}
	return s.ConfigGen, true
}

// Paddles returns the dit/dah state encoded in Gpio.
func (s Sample) Paddles() Paddles {
	return Paddles{Dit: s.Gpio&GPIODit != 0, Dah: s.Gpio&GPIODah != 0}
}

// Paddles is the instantaneous state of the two iambic paddle contacts.
type Paddles struct {
	Dit bool
	Dah bool
}

func paddlesToGpio(p Paddles) GPIOBits {
	var g GPIOBits
	if p.Dit {
		g |= GPIODit
	}
	if p.Dah {
		g |= GPIODah
	}
	return g
}

// observableEqual compares the part of two samples that silence compression
// cares about: gpio, local key, and audio level (spec §4.1/§4.2).
func observableEqual(a, b Sample) bool {
	return a.Gpio == b.Gpio && a.LocalKey == b.LocalKey && a.AudioLevel == b.AudioLevel
}

// deriveEdges sets FlagGPIOEdge/FlagLocalEdge on candidate by comparing it
// against prev, without touching any other flag the caller already set.
func deriveEdges(prev, candidate Sample) Sample {
	if candidate.Gpio != prev.Gpio {
		candidate.Flags |= FlagGPIOEdge
	}
	if candidate.LocalKey != prev.LocalKey {
		candidate.Flags |= FlagLocalEdge
	}
	return candidate
}

func hasEdge(s Sample) bool {
	return s.Flags&(FlagGPIOEdge|FlagLocalEdge) != 0
}
