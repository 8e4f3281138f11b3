package keyer

// IambicMode selects the behaviour when both paddles release during a
// squeeze: Mode A stops immediately, Mode B sends one bonus element
// (spec GLOSSARY, §4.3).
type IambicMode int

const (
	ModeA IambicMode = iota
	ModeB
)

// MemoryMode controls which opposite-paddle taps get latched during the
// memory window (spec §3).
type MemoryMode int

const (
	MemoryNone MemoryMode = iota
	MemoryDotOnly
	MemoryDahOnly
	MemoryBoth
)

// SqueezeMode resolves the open question in spec §9: whether the memory
// window samples the opposite paddle live throughout the element, or from
// a single snapshot taken at element start.
type SqueezeMode int

const (
	// SqueezeLive re-evaluates the opposite paddle on every tick inside
	// the memory window.
	SqueezeLive SqueezeMode = iota
	// SqueezeLatched snapshots both paddles once, at element start, and
	// the window arms latches only from that snapshot.
	SqueezeLatched
)

// ElementKind names an iambic element.
type ElementKind int

const (
	ElementNone ElementKind = iota
	ElementDit
	ElementDah
)

func (k ElementKind) opposite() ElementKind {
	switch k {
	case ElementDit:
		return ElementDah
	case ElementDah:
		return ElementDit
	default:
		return ElementNone
	}
}

// IambicConfig is the timing and behaviour configuration for one FSM
// (spec §3). WPM must be in [5, 100].
type IambicConfig struct {
	WPM             int
	Mode            IambicMode
	Memory          MemoryMode
	Squeeze         SqueezeMode
	WindowStartPct  int
	WindowEndPct    int
}

// DitMicros is the PARIS dit duration in microseconds: 1_200_000 / WPM.
func (c IambicConfig) DitMicros() int64 { return 1_200_000 / int64(c.WPM) }

// DahMicros is three dit units.
func (c IambicConfig) DahMicros() int64 { return 3 * c.DitMicros() }

// GapMicros is the inter-element gap, one dit unit.
func (c IambicConfig) GapMicros() int64 { return c.DitMicros() }

// windowEnabled reports whether the memory window is armed at all. A
// window with End < Start disables it (spec §4.3 tie-break).
func (c IambicConfig) windowEnabled() bool { return c.WindowEndPct >= c.WindowStartPct }

type fsmState int

const (
	stateIdle fsmState = iota
	stateSendDit
	stateSendDah
	stateGap
)

// FSM is the iambic paddle-to-keying state machine (spec §4.3). A value
// is safe to use from a single goroutine (the RT context); it holds no
// configuration of its own — the caller passes a fresh IambicConfig
// snapshot on every Tick, and a change mid-element never retroactively
// alters the element already in flight, because its duration was computed
// once, at element start, from whatever snapshot was live then.
type FSM struct {
	state fsmState

	elementStart    int64
	elementEnd      int64
	elementDuration int64
	currentKind     ElementKind
	lastElement     ElementKind

	gapStart int64
	gapEnd   int64

	ditMemory bool
	dahMemory bool

	squeezeSeenModeB bool
	snapDit          bool
	snapDah          bool

	keyOut bool
}

// NewFSM returns an FSM in the idle state.
func NewFSM() *FSM {
	return &FSM{state: stateIdle, lastElement: ElementNone}
}

// KeyDown reports the FSM's current local_key output.
func (f *FSM) KeyDown() bool { return f.keyOut }

// State exposes the current FSM state for diagnostics/tests.
func (f *FSM) State() string {
	switch f.state {
	case stateIdle:
		return "idle"
	case stateSendDit:
		return "send_dit"
	case stateSendDah:
		return "send_dah"
	case stateGap:
		return "gap"
	default:
		return "unknown"
	}
}

// Tick advances the FSM by one RT tick given the current paddle state and
// returns the resulting sample (Gpio/LocalKey only; edge flags are derived
// by the stream producer, spec §4.2).
func (f *FSM) Tick(cfg IambicConfig, nowUs int64, paddles Paddles) Sample {
	switch f.state {
	case stateIdle:
		f.tickIdle(cfg, nowUs, paddles)
	case stateSendDit, stateSendDah:
		f.tickSending(cfg, nowUs, paddles)
	case stateGap:
		f.tickGap(cfg, nowUs, paddles)
	}
	return Sample{Gpio: paddlesToGpio(paddles), LocalKey: f.keyOut}
}

func (f *FSM) tickIdle(cfg IambicConfig, nowUs int64, paddles Paddles) {
	f.keyOut = false
	if !paddles.Dit && !paddles.Dah {
		return
	}
	var kind ElementKind
	switch {
	case paddles.Dit && paddles.Dah:
		// Squeeze with no prior element sends dit; otherwise the
		// opposite of the last element sent (spec §4.3 tie-break).
		if f.lastElement == ElementDit {
			kind = ElementDah
		} else {
			kind = ElementDit
		}
	case paddles.Dit:
		kind = ElementDit
	default:
		kind = ElementDah
	}
	f.ditMemory = false
	f.dahMemory = false
	f.startElement(cfg, kind, nowUs, paddles)
}

func (f *FSM) tickSending(cfg IambicConfig, nowUs int64, paddles Paddles) {
	if nowUs < f.elementEnd {
		f.keyOut = true
		f.evaluateWindow(cfg, nowUs, paddles, f.elementStart, f.elementDuration)
		if cfg.Mode == ModeB && paddles.Dit && paddles.Dah {
			f.squeezeSeenModeB = true
		}
		return
	}
	f.keyOut = false
	f.lastElement = f.currentKind
	f.state = stateGap
	f.gapStart = f.elementEnd
	f.gapEnd = f.elementEnd + cfg.GapMicros()
}

func (f *FSM) tickGap(cfg IambicConfig, nowUs int64, paddles Paddles) {
	f.keyOut = false
	if nowUs < f.gapEnd {
		f.evaluateWindow(cfg, nowUs, paddles, f.gapStart, cfg.GapMicros())
		return
	}
	f.advanceFromGap(cfg, nowUs, paddles)
}

// evaluateWindow arms the opposite-paddle memory latch when the elapsed
// fraction of [segStart, segStart+segDuration) falls within the configured
// memory window (spec §4.3). The source of "opposite paddle pressed"
// depends on SqueezeMode: live paddle reads, or the snapshot captured at
// element start (spec §9 open question).
func (f *FSM) evaluateWindow(cfg IambicConfig, nowUs int64, paddles Paddles, segStart, segDuration int64) {
	if !cfg.windowEnabled() || segDuration <= 0 {
		return
	}
	elapsed := nowUs - segStart
	pct := elapsed * 100 / segDuration
	if pct < int64(cfg.WindowStartPct) || pct > int64(cfg.WindowEndPct) {
		return
	}

	ditPressed, dahPressed := paddles.Dit, paddles.Dah
	if cfg.Squeeze == SqueezeLatched {
		ditPressed, dahPressed = f.snapDit, f.snapDah
	}

	switch f.currentKind {
	case ElementDit:
		if dahPressed && (cfg.Memory == MemoryDahOnly || cfg.Memory == MemoryBoth) {
			f.dahMemory = true
		}
	case ElementDah:
		if ditPressed && (cfg.Memory == MemoryDotOnly || cfg.Memory == MemoryBoth) {
			f.ditMemory = true
		}
	}
}

// startElement begins sending kind at nowUs, freezing its duration from
// cfg as it stands right now (spec §4.3: a later config change never
// retroactively changes an in-flight element).
func (f *FSM) startElement(cfg IambicConfig, kind ElementKind, nowUs int64, paddles Paddles) {
	f.currentKind = kind
	f.elementStart = nowUs
	if kind == ElementDit {
		f.elementDuration = cfg.DitMicros()
	} else {
		f.elementDuration = cfg.DahMicros()
	}
	f.elementEnd = nowUs + f.elementDuration
	f.squeezeSeenModeB = false
	f.snapDit, f.snapDah = paddles.Dit, paddles.Dah
	if kind == ElementDit {
		f.state = stateSendDit
	} else {
		f.state = stateSendDah
	}
	f.keyOut = true
}

func (f *FSM) latchFor(kind ElementKind) bool {
	if kind == ElementDit {
		return f.ditMemory
	}
	return f.dahMemory
}

func (f *FSM) clearLatch(kind ElementKind) {
	if kind == ElementDit {
		f.ditMemory = false
	} else {
		f.dahMemory = false
	}
}

func paddlePressed(kind ElementKind, paddles Paddles) bool {
	if kind == ElementDit {
		return paddles.Dit
	}
	return paddles.Dah
}

// advanceFromGap picks the next element once the inter-element gap has
// elapsed, per the spec §4.3 tie-break order:
//  1. opposite paddle pressed or latched -> send opposite;
//  2. else same paddle still pressed or latched -> send same;
//  3. else, Mode B only: a squeeze was seen during the just-finished
//     element -> send one bonus element of the opposite kind;
//  4. else -> idle.
func (f *FSM) advanceFromGap(cfg IambicConfig, nowUs int64, paddles Paddles) {
	same := f.lastElement
	opp := same.opposite()

	switch {
	case paddlePressed(opp, paddles) || f.latchFor(opp):
		f.clearLatch(opp)
		f.startElement(cfg, opp, nowUs, paddles)
	case paddlePressed(same, paddles) || f.latchFor(same):
		f.clearLatch(same)
		f.startElement(cfg, same, nowUs, paddles)
	case cfg.Mode == ModeB && f.squeezeSeenModeB:
		f.squeezeSeenModeB = false
		f.startElement(cfg, opp, nowUs, paddles)
	default:
		f.squeezeSeenModeB = false
		f.state = stateIdle
		f.keyOut = false
	}
}
