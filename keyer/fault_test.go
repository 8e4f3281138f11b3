package keyer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaultStateLifecycle(t *testing.T) {
	var f FaultState
	assert.False(t, f.Active())
	assert.Equal(t, FaultNone, f.Code())

	f.Set(FaultOverrun, 7)
	assert.True(t, f.Active())
	assert.Equal(t, FaultOverrun, f.Code())
	assert.Equal(t, uint32(7), f.Data())
	assert.Equal(t, int64(1), f.Count())

	f.Clear()
	assert.False(t, f.Active())
	assert.Equal(t, FaultNone, f.Code())

	f.Set(FaultHardware, 1)
	f.Set(FaultHardware, 2)
	assert.Equal(t, int64(3), f.Count(), "count is monotonic across Set calls, never reset by Clear")
}

func TestFaultCodeString(t *testing.T) {
	assert.Equal(t, "none", FaultNone.String())
	assert.Equal(t, "overrun", FaultOverrun.String())
	assert.Equal(t, "latency_exceeded", FaultLatencyExceeded.String())
	assert.Equal(t, "producer_overrun", FaultProducerOverrun.String())
	assert.Equal(t, "hardware", FaultHardware.String())
	assert.Equal(t, "unknown", FaultCode(99).String())
}
