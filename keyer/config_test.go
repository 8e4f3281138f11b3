package keyer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig()
	ic := c.IambicConfig()
	assert.Equal(t, 20, ic.WPM)
	assert.Equal(t, ModeB, ic.Mode)
	assert.Equal(t, MemoryBoth, ic.Memory)
	assert.Equal(t, SqueezeLive, ic.Squeeze)
	assert.Equal(t, 0, ic.WindowStartPct)
	assert.Equal(t, 100, ic.WindowEndPct)
	assert.Equal(t, int64(200_000), c.PTTTailMicros())
	assert.Equal(t, 600, c.SidetoneHz())
	assert.Equal(t, uint64(1), c.Generation())
}

func TestSetWPMValidatesRange(t *testing.T) {
	c := NewConfig()
	assert.ErrorIs(t, c.SetWPM(4), ErrWPMOutOfRange)
	assert.ErrorIs(t, c.SetWPM(101), ErrWPMOutOfRange)
	require.NoError(t, c.SetWPM(35))
	assert.Equal(t, 35, c.IambicConfig().WPM)
	require.NoError(t, c.SetWPM(100))
	assert.Equal(t, 100, c.IambicConfig().WPM)
}

func TestSetWindowValidatesBoundsAndOrder(t *testing.T) {
	c := NewConfig()
	assert.ErrorIs(t, c.SetWindow(-1, 50), ErrWindowPctOutOfRange)
	assert.ErrorIs(t, c.SetWindow(10, 101), ErrWindowPctOutOfRange)
	assert.ErrorIs(t, c.SetWindow(60, 40), ErrWindowPctOrder)

	require.NoError(t, c.SetWindow(20, 80))
	ic := c.IambicConfig()
	assert.Equal(t, 20, ic.WindowStartPct)
	assert.Equal(t, 80, ic.WindowEndPct)
}

func TestSetPTTTailMicrosValidatesRange(t *testing.T) {
	c := NewConfig()
	assert.ErrorIs(t, c.SetPTTTailMicros(-1), ErrTailOutOfRange)
	assert.ErrorIs(t, c.SetPTTTailMicros(maxTailMicros+1), ErrTailOutOfRange)
	require.NoError(t, c.SetPTTTailMicros(500_000))
	assert.Equal(t, int64(500_000), c.PTTTailMicros())
}

func TestSetSidetoneHzValidatesRange(t *testing.T) {
	c := NewConfig()
	assert.ErrorIs(t, c.SetSidetoneHz(299), ErrSidetoneFreqOutOfRange)
	assert.ErrorIs(t, c.SetSidetoneHz(1201), ErrSidetoneFreqOutOfRange)
	require.NoError(t, c.SetSidetoneHz(800))
	assert.Equal(t, 800, c.SidetoneHz())
}

func TestGenerationBumpsOnlyOnSuccess(t *testing.T) {
	c := NewConfig()
	gen := c.Generation()

	require.Error(t, c.SetWPM(0))
	assert.Equal(t, gen, c.Generation(), "a rejected setter must not bump the generation")

	require.NoError(t, c.SetWPM(25))
	assert.Equal(t, gen+1, c.Generation())
}

func TestSetModeMemorySqueezeBumpGeneration(t *testing.T) {
	c := NewConfig()
	gen := c.Generation()

	c.SetMode(ModeA)
	assert.Equal(t, ModeA, c.IambicConfig().Mode)
	gen++
	assert.Equal(t, gen, c.Generation())

	c.SetMemory(MemoryDotOnly)
	assert.Equal(t, MemoryDotOnly, c.IambicConfig().Memory)
	gen++
	assert.Equal(t, gen, c.Generation())

	c.SetSqueeze(SqueezeLatched)
	assert.Equal(t, SqueezeLatched, c.IambicConfig().Squeeze)
	gen++
	assert.Equal(t, gen, c.Generation())
}

func TestConfigGenTagIsLow16BitsOfGeneration(t *testing.T) {
	c := NewConfig()
	for i := 0; i < 5; i++ {
		require.NoError(t, c.SetWPM(20+i))
	}
	assert.Equal(t, uint16(c.Generation()), c.ConfigGenTag())
}

func TestSnapshotRoundTripsThroughRestore(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.SetWPM(28))
	c.SetMode(ModeA)
	c.SetMemory(MemoryDahOnly)
	c.SetSqueeze(SqueezeLatched)
	require.NoError(t, c.SetWindow(10, 90))
	require.NoError(t, c.SetPTTTailMicros(350_000))
	require.NoError(t, c.SetSidetoneHz(700))

	snap := c.Snapshot()
	assert.Equal(t, 28, snap.WPM)
	assert.Equal(t, "a", snap.Mode)
	assert.Equal(t, "dah", snap.Memory)
	assert.Equal(t, "latched", snap.Squeeze)
	assert.Equal(t, 10, snap.WindowStartPct)
	assert.Equal(t, 90, snap.WindowEndPct)
	assert.Equal(t, int64(350_000), snap.PTTTailMicros)
	assert.Equal(t, 700, snap.SidetoneHz)

	restored := NewConfig()
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, c.IambicConfig(), restored.IambicConfig())
	assert.Equal(t, c.PTTTailMicros(), restored.PTTTailMicros())
	assert.Equal(t, c.SidetoneHz(), restored.SidetoneHz())
}

func TestRestoreAppliesValidFieldsEvenWhenOneIsInvalid(t *testing.T) {
	c := NewConfig()
	p := PersistedConfig{
		WPM:            999, // invalid, out of range
		Mode:           "a",
		Memory:         "dit",
		Squeeze:        "latched",
		WindowStartPct: 15,
		WindowEndPct:   85,
		PTTTailMicros:  250_000,
		SidetoneHz:     650,
	}
	err := c.Restore(p)
	assert.ErrorIs(t, err, ErrWPMOutOfRange)

	ic := c.IambicConfig()
	assert.Equal(t, ModeA, ic.Mode, "valid fields must still be applied despite the WPM rejection")
	assert.Equal(t, MemoryDotOnly, ic.Memory)
	assert.Equal(t, SqueezeLatched, ic.Squeeze)
	assert.Equal(t, 15, ic.WindowStartPct)
	assert.Equal(t, 85, ic.WindowEndPct)
	assert.Equal(t, int64(250_000), c.PTTTailMicros())
	assert.Equal(t, 650, c.SidetoneHz())
}

func TestModeMemorySqueezeFromUnknownNameFallsBackToDefault(t *testing.T) {
	assert.Equal(t, ModeB, modeFromName("bogus"))
	assert.Equal(t, MemoryBoth, memoryFromName("bogus"))
	assert.Equal(t, SqueezeLive, squeezeFromName("bogus"))
}
