package keyer

import (
	"errors"
	"strings"

	"code.hybscloud.com/atomix"
)

// Caller-visible text-send errors (spec §7).
var (
	ErrSenderBusy    = errors.New("keyer: sender busy")
	ErrMessageTooLong = errors.New("keyer: message exceeds sender buffer")
	ErrInvalidChar   = errors.New("keyer: unsupported character in message")
)

// maxMessageRunes bounds the sender's input buffer.
const maxMessageRunes = 256

// SenderState names the text sender's top-level state (spec §4.9).
type SenderState int

const (
	SenderIdle SenderState = iota
	SenderSending
	SenderPaused
)

// SenderConfig is the subset of iambic timing the sender needs.
type SenderConfig struct {
	WPM int
}

func (c SenderConfig) ditMicros() int64 { return 1_200_000 / int64(c.WPM) }

type senderElemKind int

const (
	elemDit senderElemKind = iota
	elemDah
	elemIntraGap
	elemCharGap
	elemWordGap
)

func (c SenderConfig) duration(kind senderElemKind) int64 {
	dit := c.ditMicros()
	switch kind {
	case elemDah:
		return 3 * dit
	case elemCharGap:
		return 3 * dit
	case elemWordGap:
		return 7 * dit
	default: // elemDit, elemIntraGap
		return dit
	}
}

type tokenKind int

const (
	tokChar tokenKind = iota
	tokSpace
)

type senderToken struct {
	kind    tokenKind
	pattern string
}

// tokenize parses the ITU-subset text input channel (spec §6): letters
// (case-insensitive), digits, ITU punctuation, spaces, and bracketed
// prosigns up to tag length 8.
func tokenize(text string) ([]senderToken, error) {
	runes := []rune(text)
	var tokens []senderToken
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == ' ':
			tokens = append(tokens, senderToken{kind: tokSpace})
			i++
		case r == '<':
			j := i + 1
			for j < len(runes) && runes[j] != '>' && j-i-1 <= maxProsignTagLen {
				j++
			}
			if j >= len(runes) || runes[j] != '>' || j == i+1 {
				return nil, ErrInvalidChar
			}
			tag := strings.ToUpper(string(runes[i+1 : j]))
			pat, ok := Prosigns[tag]
			if !ok {
				return nil, ErrInvalidChar
			}
			tokens = append(tokens, senderToken{kind: tokChar, pattern: pat})
			i = j + 1
		default:
			ch := NormalizeChar(r)
			pat, ok := CharPattern[ch]
			if !ok {
				return nil, ErrInvalidChar
			}
			tokens = append(tokens, senderToken{kind: tokChar, pattern: pat})
			i++
		}
	}
	return tokens, nil
}

// buildSchedule flattens tokens into a linear sequence of elements,
// inserting intra-character gaps within a pattern and a char-gap between
// two non-space tokens (a space token supplies its own word-gap, so no
// char-gap is added before or after it).
func buildSchedule(tokens []senderToken) []senderElemKind {
	var schedule []senderElemKind
	for idx, t := range tokens {
		if t.kind == tokSpace {
			schedule = append(schedule, elemWordGap)
			continue
		}
		for i, c := range t.pattern {
			if c == '.' {
				schedule = append(schedule, elemDit)
			} else {
				schedule = append(schedule, elemDah)
			}
			if i < len(t.pattern)-1 {
				schedule = append(schedule, elemIntraGap)
			}
		}
		if idx+1 < len(tokens) && tokens[idx+1].kind != tokSpace {
			schedule = append(schedule, elemCharGap)
		}
	}
	return schedule
}

// Sender is the cooperative text-to-Morse producer (spec §4.9). It shares
// the same output path as the iambic FSM: the RT/BG owner polls KeyDown()
// and merges it with the iambic key state. It runs on its own ~10ms tick,
// distinct from the hard-RT 1ms tick.
type Sender struct {
	abort *atomix.Bool // shared "paddle touched" flag; nil disables yielding

	cfg      SenderConfig
	schedule []senderElemKind
	pos      int
	curKind  senderElemKind
	elemEnd  int64

	state        SenderState
	pendingStart bool

	keyDown atomix.Bool
}

// NewSender returns an idle sender. abort, if non-nil, is a shared flag the
// RT owner sets when paddle activity is observed; the sender checks it once
// per tick and yields immediately (spec §5 cancellation).
func NewSender(abort *atomix.Bool) *Sender {
	return &Sender{abort: abort, state: SenderIdle}
}

// Busy reports whether the sender is not idle.
func (s *Sender) Busy() bool { return s.state != SenderIdle }

// State returns the sender's current top-level state.
func (s *Sender) State() SenderState { return s.state }

// Start validates and enqueues text for sending. It returns ErrSenderBusy
// if a send is already in progress, ErrMessageTooLong if text exceeds the
// buffer, or ErrInvalidChar for unsupported input (spec §7). None of these
// change sender state.
func (s *Sender) Start(cfg SenderConfig, text string) error {
	if s.state != SenderIdle {
		return ErrSenderBusy
	}
	if len([]rune(text)) > maxMessageRunes {
		return ErrMessageTooLong
	}
	tokens, err := tokenize(text)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.schedule = buildSchedule(tokens)
	s.pos = 0
	s.state = SenderSending
	s.pendingStart = true
	return nil
}

// Pause holds the key up and freezes the in-flight element's timing.
func (s *Sender) Pause() {
	if s.state == SenderSending {
		s.state = SenderPaused
		s.keyDown.StoreRelease(false)
	}
}

// Resume restarts the current element's timing from "now" on the next
// Tick call (spec §4.9).
func (s *Sender) Resume() {
	if s.state == SenderPaused {
		s.state = SenderSending
		s.pendingStart = true
	}
}

// KeyDown reports the sender's published key-down flag.
func (s *Sender) KeyDown() bool { return s.keyDown.LoadAcquire() }

// Tick advances the schedule by one BG tick.
func (s *Sender) Tick(nowUs int64) {
	if s.state != SenderSending {
		return
	}
	if s.abort != nil && s.abort.LoadAcquire() {
		s.finish()
		return
	}

	if s.pendingStart {
		s.pendingStart = false
		s.beginElement(nowUs)
		if s.state != SenderSending {
			return
		}
	}

	if nowUs < s.elemEnd {
		s.publishKey()
		return
	}

	s.advance(nowUs)
	if s.state == SenderSending {
		s.publishKey()
	}
}

func (s *Sender) publishKey() {
	down := s.curKind == elemDit || s.curKind == elemDah
	s.keyDown.StoreRelease(down)
}

func (s *Sender) beginElement(nowUs int64) {
	if s.pos >= len(s.schedule) {
		s.finish()
		return
	}
	s.curKind = s.schedule[s.pos]
	s.elemEnd = nowUs + s.cfg.duration(s.curKind)
}

func (s *Sender) advance(nowUs int64) {
	s.pos++
	if s.pos >= len(s.schedule) {
		s.finish()
		return
	}
	s.beginElement(nowUs)
}

func (s *Sender) finish() {
	s.state = SenderIdle
	s.schedule = nil
	s.pos = 0
	s.keyDown.StoreRelease(false)
}
