package keyer

// PTT is the push-to-talk tail-timer controller (spec §4.8): it turns the
// transmit-enable line on as soon as keying presence is seen, and holds it
// on for TailMicros after the last keying activity.
type PTT struct {
	tailMicros int64

	on           bool
	hasAudio     bool
	audioThisTick bool
	lastAudioUs  int64
}

// NewPTT returns a controller with the given tail duration in microseconds.
func NewPTT(tailMicros int64) *PTT {
	return &PTT{tailMicros: tailMicros}
}

// AudioSample marks keying presence for the current tick: it stamps
// lastAudioUs and, if PTT is off, turns it on immediately.
func (p *PTT) AudioSample(nowUs int64) {
	p.audioThisTick = true
	p.hasAudio = true
	p.lastAudioUs = nowUs
	p.on = true
}

// Tick resets the per-tick audio flag and, if PTT is on, no audio was seen
// this tick, and the tail has elapsed since the last audio, turns PTT off.
func (p *PTT) Tick(nowUs int64) {
	seenThisTick := p.audioThisTick
	p.audioThisTick = false
	if p.on && !seenThisTick && p.hasAudio && nowUs-p.lastAudioUs > p.tailMicros {
		p.on = false
	}
}

// ForceOff immediately turns PTT off, used during fault handling (spec §5).
func (p *PTT) ForceOff() {
	p.on = false
	p.audioThisTick = false
}

// On reports the current PTT line state.
func (p *PTT) On() bool { return p.on }
