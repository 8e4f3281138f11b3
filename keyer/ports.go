package keyer

// This file defines the collaborator boundary (spec §6): every dependency
// the real-time core has on the outside world is expressed as a small
// interface here, implemented concretely under hal/ and wired together by
// cmd/cwkeyerd.

// GPIO reads paddle contact state and drives the keyed output line.
type GPIO interface {
	ReadPaddles() (Paddles, error)
	SetKeyLine(down bool) error
	Close() error
}

// AudioOut accepts a block of signed 16-bit PCM sidetone samples for
// playback.
type AudioOut interface {
	WriteSamples(pcm []int16) error
	Close() error
}

// Clock supplies the monotonic microsecond timestamp the RT loop ticks
// against. Implementations must never go backwards.
type Clock interface {
	NowMicros() int64
}

// ConfigStore persists and reloads a Config's serializable fields across
// process restarts.
type ConfigStore interface {
	Load() (PersistedConfig, error)
	Save(PersistedConfig) error
}

// TextInput is a source of text to feed the Sender, e.g. a serial console
// or a local socket.
type TextInput interface {
	// ReadMessage blocks until a complete message is available or the
	// input is closed.
	ReadMessage() (string, error)
	Close() error
}

// DecodedOutput receives characters recovered by the Decoder for display
// or logging.
type DecodedOutput interface {
	WriteDecoded(DecodedChar) error
}

// NetForwarder announces this keyer's presence on the local network and
// forwards fault/status events to anyone listening.
type NetForwarder interface {
	Announce(serviceName string) error
	ForwardFault(FaultCode, uint32) error
	Shutdown() error
}
