package keyer

import "code.hybscloud.com/atomix"

// ConsumerResult is the outcome of a single consumer tick.
type ConsumerResult int

const (
	ResultOK ConsumerResult = iota
	ResultNoData
	ResultFault
)

// HardRTConsumer drives the physical key and sidetone (spec §4.4). It must
// never fall behind its configured MaxLag; if it does, it trips the fault
// state and the caller must stop driving outputs until the fault clears.
type HardRTConsumer struct {
	stream  *Stream
	fault   *FaultState
	maxLag  uint64
	r       uint64
}

// NewHardRTConsumer creates a consumer positioned at the stream's current
// write position, so its first tick observes only new samples.
func NewHardRTConsumer(stream *Stream, fault *FaultState, maxLag uint64) *HardRTConsumer {
	return &HardRTConsumer{
		stream: stream,
		fault:  fault,
		maxLag: maxLag,
		r:      stream.WritePosition(),
	}
}

// Tick performs one read (spec §4.4):
//  1. if lag > MaxLag, trip the fault and return ResultFault;
//  2. if lag == 0, return ResultNoData;
//  3. otherwise read and advance, returning ResultOK.
func (c *HardRTConsumer) Tick() (ConsumerResult, Sample) {
	w := c.stream.WritePosition()
	lag := w - c.r
	if lag > c.maxLag {
		c.fault.Set(FaultLatencyExceeded, uint32(lag))
		return ResultFault, Sample{}
	}
	if lag == 0 {
		return ResultNoData, Sample{}
	}

	var out Sample
	if !c.stream.Read(c.r, &out) {
		// The producer caught up and clobbered our slot between the lag
		// check and the read: the stream refuses to silently hand back
		// corrupt data, so this is a producer overrun.
		c.fault.Set(FaultProducerOverrun, uint32(lag))
		return ResultFault, Sample{}
	}
	c.r++
	return ResultOK, out
}

// ReadPosition returns the consumer's current read cursor R.
func (c *HardRTConsumer) ReadPosition() uint64 { return c.r }

// Resync moves R forward to the stream's current write position. Called
// externally after fault clearance (spec §4.4, §5).
func (c *HardRTConsumer) Resync() {
	c.r = c.stream.WritePosition()
}

// BestEffortConsumer drives the decoder, the timeline, and the network
// forwarder (spec §4.5). It never trips the fault; instead, on excessive
// lag it jumps its read cursor forward, leaving a small margin, and counts
// the skipped samples.
type BestEffortConsumer struct {
	stream        *Stream
	skipThreshold uint64
	r             uint64
	dropped       atomix.Uint64
}

// NewBestEffortConsumer creates a consumer positioned at the stream's
// current write position. skipThreshold <= 0 disables skip-on-lag (the
// consumer then behaves exactly like a hard-RT consumer minus fault
// escalation).
func NewBestEffortConsumer(stream *Stream, skipThreshold uint64) *BestEffortConsumer {
	return &BestEffortConsumer{
		stream:        stream,
		skipThreshold: skipThreshold,
		r:             stream.WritePosition(),
	}
}

// Tick performs one read with skip-on-lag (spec §4.5).
func (c *BestEffortConsumer) Tick() (ConsumerResult, Sample) {
	w := c.stream.WritePosition()
	lag := w - c.r

	if c.skipThreshold > 0 && lag > c.skipThreshold {
		margin := c.skipThreshold / 8
		skip := lag - margin
		c.r += skip
		c.dropped.Add(skip)
		lag = margin
	}

	if lag == 0 {
		return ResultNoData, Sample{}
	}

	var out Sample
	if !c.stream.Read(c.r, &out) {
		// Producer raced ahead of our skip target; resync to current W
		// and count everything between as dropped rather than fault.
		skipped := w - c.r
		c.r = w
		c.dropped.Add(skipped)
		return ResultNoData, Sample{}
	}
	c.r++
	return ResultOK, out
}

// ReadPosition returns the consumer's current read cursor R.
func (c *BestEffortConsumer) ReadPosition() uint64 { return c.r }

// Dropped returns the cumulative number of samples skipped due to lag.
func (c *BestEffortConsumer) Dropped() uint64 { return c.dropped.LoadRelaxed() }
