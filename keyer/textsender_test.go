package keyer

import (
	"testing"

	"code.hybscloud.com/atomix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeLettersAndDigits(t *testing.T) {
	toks, err := tokenize("a1")
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, CharPattern['A'], toks[0].pattern)
	assert.Equal(t, CharPattern['1'], toks[1].pattern)
}

func TestTokenizeSpaceProducesSpaceToken(t *testing.T) {
	toks, err := tokenize("a b")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, tokSpace, toks[1].kind)
}

func TestTokenizeRejectsUnsupportedChar(t *testing.T) {
	_, err := tokenize("a~b")
	assert.ErrorIs(t, err, ErrInvalidChar)
}

func TestTokenizeProsignTag(t *testing.T) {
	toks, err := tokenize("<ar>")
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, Prosigns["AR"], toks[0].pattern)
}

func TestTokenizeUnterminatedProsignIsInvalid(t *testing.T) {
	_, err := tokenize("<ar")
	assert.ErrorIs(t, err, ErrInvalidChar)
}

func TestTokenizeUnknownProsignIsInvalid(t *testing.T) {
	_, err := tokenize("<ZZ>")
	assert.ErrorIs(t, err, ErrInvalidChar)
}

func TestBuildScheduleInsertsIntraAndCharGaps(t *testing.T) {
	// "E" = ".", "T" = "-" -> dit, char-gap, dah
	toks, err := tokenize("ET")
	require.NoError(t, err)
	sched := buildSchedule(toks)
	assert.Equal(t, []senderElemKind{elemDit, elemCharGap, elemDah}, sched)
}

func TestBuildScheduleSpaceSuppliesWordGapNotCharGap(t *testing.T) {
	toks, err := tokenize("E E")
	require.NoError(t, err)
	sched := buildSchedule(toks)
	assert.Equal(t, []senderElemKind{elemDit, elemWordGap, elemDit}, sched)
}

func TestBuildScheduleMultiElementCharHasIntraGaps(t *testing.T) {
	// "R" = ".-."
	toks, err := tokenize("R")
	require.NoError(t, err)
	sched := buildSchedule(toks)
	assert.Equal(t, []senderElemKind{elemDit, elemIntraGap, elemDah, elemIntraGap, elemDit}, sched)
}

func TestSenderStartRejectsTooLongMessage(t *testing.T) {
	s := NewSender(nil)
	long := make([]rune, maxMessageRunes+1)
	for i := range long {
		long[i] = 'E'
	}
	err := s.Start(SenderConfig{WPM: 20}, string(long))
	assert.ErrorIs(t, err, ErrMessageTooLong)
	assert.Equal(t, SenderIdle, s.State())
}

func TestSenderStartRejectsWhileBusy(t *testing.T) {
	s := NewSender(nil)
	require.NoError(t, s.Start(SenderConfig{WPM: 20}, "E"))
	err := s.Start(SenderConfig{WPM: 20}, "T")
	assert.ErrorIs(t, err, ErrSenderBusy)
}

func TestSenderStartRejectsInvalidCharWithoutChangingState(t *testing.T) {
	s := NewSender(nil)
	err := s.Start(SenderConfig{WPM: 20}, "~")
	assert.ErrorIs(t, err, ErrInvalidChar)
	assert.Equal(t, SenderIdle, s.State())
}

func TestSenderSendsSingleDitThenGoesIdle(t *testing.T) {
	s := NewSender(nil)
	cfg := SenderConfig{WPM: 20}
	require.NoError(t, s.Start(cfg, "E"))

	dit := cfg.duration(elemDit)
	now := int64(0)
	s.Tick(now)
	require.True(t, s.KeyDown())

	now += dit
	s.Tick(now)
	assert.False(t, s.KeyDown())
	assert.Equal(t, SenderIdle, s.State())
}

func TestSenderPauseHoldsKeyUpAndFreezesPosition(t *testing.T) {
	s := NewSender(nil)
	cfg := SenderConfig{WPM: 10}
	require.NoError(t, s.Start(cfg, "T")) // single dah element
	s.Tick(0)
	require.True(t, s.KeyDown())

	s.Pause()
	assert.False(t, s.KeyDown())
	assert.Equal(t, SenderPaused, s.State())

	// Ticking while paused must not advance anything.
	s.Tick(10_000_000)
	assert.Equal(t, SenderPaused, s.State())
	assert.False(t, s.KeyDown())
}

func TestSenderResumeRestartsElementTimingFromNow(t *testing.T) {
	s := NewSender(nil)
	cfg := SenderConfig{WPM: 10} // 120ms dit, 360ms dah
	require.NoError(t, s.Start(cfg, "T"))
	s.Tick(0)
	s.Pause()

	s.Resume()
	assert.Equal(t, SenderSending, s.State())

	resumeAt := int64(5_000_000)
	s.Tick(resumeAt)
	require.True(t, s.KeyDown(), "resuming should re-key immediately")

	// Should still be keyed just before a full dah duration has elapsed
	// from the resume point, not from the original start.
	s.Tick(resumeAt + cfg.duration(elemDah) - 1000)
	assert.True(t, s.KeyDown())

	s.Tick(resumeAt + cfg.duration(elemDah))
	assert.False(t, s.KeyDown())
}

func TestSenderAbortFlagYieldsImmediately(t *testing.T) {
	var abort atomix.Bool
	s := NewSender(&abort)
	require.NoError(t, s.Start(SenderConfig{WPM: 20}, "SOS"))
	s.Tick(0)
	require.True(t, s.KeyDown())

	abort.StoreRelease(true)
	s.Tick(1000)
	assert.False(t, s.KeyDown())
	assert.Equal(t, SenderIdle, s.State())
}

func TestSenderBusyReflectsNonIdleStates(t *testing.T) {
	s := NewSender(nil)
	assert.False(t, s.Busy())
	require.NoError(t, s.Start(SenderConfig{WPM: 20}, "E"))
	assert.True(t, s.Busy())
}
