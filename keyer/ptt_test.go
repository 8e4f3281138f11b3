package keyer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPTTOffUntilKeyed(t *testing.T) {
	p := NewPTT(200_000)
	assert.False(t, p.On())
	p.Tick(1000)
	assert.False(t, p.On())
}

func TestPTTTurnsOnImmediatelyOnKeying(t *testing.T) {
	p := NewPTT(200_000)
	p.AudioSample(0)
	assert.True(t, p.On())
}

func TestPTTHoldsThroughTailThenDrops(t *testing.T) {
	p := NewPTT(200_000)
	p.AudioSample(0)
	require.True(t, p.On())

	p.Tick(100_000)
	assert.True(t, p.On(), "still within the tail window")

	p.Tick(200_000)
	assert.True(t, p.On(), "exactly at the tail boundary is still within it")

	p.Tick(200_001)
	assert.False(t, p.On(), "tail has elapsed with no further keying")
}

func TestPTTRekeyingDuringTailResetsTheTimer(t *testing.T) {
	p := NewPTT(200_000)
	p.AudioSample(0)
	p.Tick(150_000)
	require.True(t, p.On())

	p.AudioSample(150_000) // re-keyed before the tail expired
	p.Tick(300_000)
	assert.True(t, p.On(), "the re-key should have pushed the drop-out further out")

	p.Tick(350_001)
	assert.False(t, p.On())
}

func TestPTTForceOffOverridesTail(t *testing.T) {
	p := NewPTT(200_000)
	p.AudioSample(0)
	require.True(t, p.On())

	p.ForceOff()
	assert.False(t, p.On())

	// A stale Tick call afterwards must not resurrect it.
	p.Tick(1000)
	assert.False(t, p.On())
}

func TestPTTAudioSampleSameTickAsTailExpiryKeepsItOn(t *testing.T) {
	p := NewPTT(200_000)
	p.AudioSample(0)
	p.AudioSample(200_001) // keyed again in the very tick the tail would expire
	p.Tick(200_001)
	assert.True(t, p.On(), "audio seen this tick must suppress the drop-out check")
}
