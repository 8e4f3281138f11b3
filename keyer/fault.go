package keyer

import "code.hybscloud.com/atomix"

// FaultCode identifies why the fault tripwire latched (spec §3, §7).
type FaultCode int32

const (
	FaultNone FaultCode = iota
	FaultOverrun
	FaultLatencyExceeded
	FaultProducerOverrun
	FaultHardware
)

func (c FaultCode) String() string {
	switch c {
	case FaultNone:
		return "none"
	case FaultOverrun:
		return "overrun"
	case FaultLatencyExceeded:
		return "latency_exceeded"
	case FaultProducerOverrun:
		return "producer_overrun"
	case FaultHardware:
		return "hardware"
	default:
		return "unknown"
	}
}

// FaultState is the atomic tripwire that forces silence on any timing
// violation (spec §4.6). It is a one-shot latch: only Clear removes it.
//
// Active is release/acquire; Code/Data/Count are relaxed, but are safely
// published to any reader that observes Active() == true, because the
// release store of active happens-after the relaxed stores below it.
type FaultState struct {
	active atomix.Bool
	code   atomix.Int32
	data   atomix.Int32
	count  atomix.Int64
}

// Set trips the fault: relaxed stores of code and data, a release store of
// active, and a relaxed increment of the occurrence counter.
func (f *FaultState) Set(code FaultCode, data uint32) {
	f.code.StoreRelaxed(int32(code))
	f.data.StoreRelaxed(int32(data))
	f.active.StoreRelease(true)
	f.count.Add(1)
}

// Clear removes the latch. Recovery logic outside the core must call this
// once it is safe to resume, then resync the hard-RT consumer.
func (f *FaultState) Clear() {
	f.code.StoreRelaxed(int32(FaultNone))
	f.data.StoreRelaxed(0)
	f.active.StoreRelease(false)
}

// Active is an acquire-load: once observed true, Code/Data are guaranteed
// consistent with the triggering Set call.
func (f *FaultState) Active() bool { return f.active.LoadAcquire() }

// Code returns the fault code from the most recent Set call.
func (f *FaultState) Code() FaultCode { return FaultCode(f.code.LoadRelaxed()) }

// Data returns the fault payload (e.g. observed lag) from the most recent
// Set call.
func (f *FaultState) Data() uint32 { return uint32(f.data.LoadRelaxed()) }

// Count returns the monotonic number of times Set has been called.
func (f *FaultState) Count() int64 { return f.count.LoadRelaxed() }
