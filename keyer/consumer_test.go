package keyer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHardRTConsumerNoData(t *testing.T) {
	s, err := NewStream(8)
	require.NoError(t, err)
	fault := &FaultState{}
	c := NewHardRTConsumer(s, fault, 2)

	res, _ := c.Tick()
	assert.Equal(t, ResultNoData, res)
	assert.False(t, fault.Active())
}

func TestHardRTConsumerReadsInOrder(t *testing.T) {
	s, err := NewStream(8)
	require.NoError(t, err)
	fault := &FaultState{}
	c := NewHardRTConsumer(s, fault, 4)

	s.PushRaw(Sample{AudioLevel: 1})
	s.PushRaw(Sample{AudioLevel: 2})

	res, got := c.Tick()
	require.Equal(t, ResultOK, res)
	assert.Equal(t, uint8(1), got.AudioLevel)

	res, got = c.Tick()
	require.Equal(t, ResultOK, res)
	assert.Equal(t, uint8(2), got.AudioLevel)

	res, _ = c.Tick()
	assert.Equal(t, ResultNoData, res)
}

func TestHardRTConsumerFaultsOnLag(t *testing.T) {
	s, err := NewStream(8)
	require.NoError(t, err)
	fault := &FaultState{}
	c := NewHardRTConsumer(s, fault, 2)

	for i := 0; i < 5; i++ {
		s.PushRaw(Sample{AudioLevel: uint8(i)})
	}

	res, _ := c.Tick()
	assert.Equal(t, ResultFault, res)
	assert.True(t, fault.Active())
	assert.Equal(t, FaultLatencyExceeded, fault.Code())
	assert.Equal(t, uint32(5), fault.Data())
}

func TestHardRTConsumerResync(t *testing.T) {
	s, err := NewStream(8)
	require.NoError(t, err)
	fault := &FaultState{}
	c := NewHardRTConsumer(s, fault, 2)

	for i := 0; i < 5; i++ {
		s.PushRaw(Sample{})
	}
	c.Tick() // trips the fault

	c.Resync()
	assert.Equal(t, s.WritePosition(), c.ReadPosition())

	res, _ := c.Tick()
	assert.Equal(t, ResultNoData, res)
}

func TestBestEffortConsumerSkipsOnLag(t *testing.T) {
	s, err := NewStream(64)
	require.NoError(t, err)
	c := NewBestEffortConsumer(s, 8)

	for i := 0; i < 20; i++ {
		s.PushRaw(Sample{AudioLevel: uint8(i)})
	}

	res, got := c.Tick()
	require.Equal(t, ResultOK, res)
	assert.Greater(t, c.Dropped(), uint64(0))
	assert.GreaterOrEqual(t, int(got.AudioLevel), 12, "should have skipped ahead near the margin, not replayed from the start")
}

func TestBestEffortConsumerNeverFaults(t *testing.T) {
	s, err := NewStream(16)
	require.NoError(t, err)
	c := NewBestEffortConsumer(s, 4)

	for i := 0; i < 50; i++ {
		s.PushRaw(Sample{})
		res, _ := c.Tick()
		assert.NotEqual(t, ResultFault, res)
	}
}

func TestBestEffortConsumerDisabledSkipThreshold(t *testing.T) {
	s, err := NewStream(64)
	require.NoError(t, err)
	c := NewBestEffortConsumer(s, 0)

	for i := 0; i < 10; i++ {
		s.PushRaw(Sample{AudioLevel: uint8(i)})
	}
	res, got := c.Tick()
	require.Equal(t, ResultOK, res)
	assert.Equal(t, uint8(0), got.AudioLevel)
	assert.Equal(t, uint64(0), c.Dropped())
}
