package keyer

import (
	"errors"

	"code.hybscloud.com/atomix"
)

// ErrCapacityNotPow2 is returned by Init/NewStream when the requested
// capacity is not a power of two (spec §4.1).
var ErrCapacityNotPow2 = errors.New("keyer: stream capacity must be a power of two")

// silenceSaturate is the largest run length a silence record can carry
// before a fresh record must be started (spec §3, §9 open question: the
// teacher's saturation point never tested the wrap case, so this module
// emits a fresh record on saturation rather than wrapping).
const silenceSaturate = 65535

// Stream is a lock-free single-producer / multiple-consumer ring of fixed
// size Sample records with run-length silence compression (spec §3, §4.1).
//
// Exactly one goroutine may call Push/PushRaw/Flush (the producer). Any
// number of goroutines may call Read/WritePosition/Lag/IsOverrun
// concurrently, each with its own read position.
type Stream struct {
	storage  []Sample
	capacity uint64
	mask     uint64

	w atomix.Uint64 // producer position, published with release ordering

	// Producer-private state. Never touched by a consumer.
	posLocal  uint64
	last      Sample
	idleTicks uint32
}

// NewStream allocates backing storage for capacity samples (rounded up
// internally is not performed; capacity must already be a power of two)
// and returns an initialised Stream.
func NewStream(capacity int) (*Stream, error) {
	s := &Stream{}
	if err := s.Init(make([]Sample, capacity)); err != nil {
		return nil, err
	}
	return s, nil
}

// Init takes ownership of storage for the stream's lifetime. len(storage)
// must be a power of two.
func (s *Stream) Init(storage []Sample) error {
	n := uint64(len(storage))
	if n == 0 || n&(n-1) != 0 {
		return ErrCapacityNotPow2
	}
	s.storage = storage
	s.capacity = n
	s.mask = n - 1
	s.w.StoreRelaxed(0)
	s.posLocal = 0
	s.last = Sample{}
	s.idleTicks = 0
	return nil
}

// Capacity returns the ring's capacity in samples.
func (s *Stream) Capacity() uint64 { return s.capacity }

// Push is the producer-only entry point with silence compression (spec
// §4.1). If sample's observable fields equal the last-pushed sample and
// neither carries an edge, the idle-tick accumulator is incremented instead
// of writing a new record.
func (s *Stream) Push(sample Sample) {
	sample = deriveEdges(s.last, sample)

	if observableEqual(sample, s.last) && !hasEdge(sample) {
		s.idleTicks++
		s.last = sample
		if s.idleTicks >= silenceSaturate {
			s.emitSilence()
		}
		return
	}

	s.flushSilence()
	s.writeSlot(sample)
	s.last = sample
	s.idleTicks = 0
}

// PushRaw is the producer-only entry point that bypasses silence
// compression: every sample is recorded (spec §4.1), e.g. for calibration.
// Any pending silence record is flushed first.
func (s *Stream) PushRaw(sample Sample) {
	sample = deriveEdges(s.last, sample)
	s.flushSilence()
	s.writeSlot(sample)
	s.last = sample
	s.idleTicks = 0
}

// Flush emits a pending silence record, if any (spec §4.1): used at
// shutdown or handover so no accumulated run length is lost.
func (s *Stream) Flush() {
	s.flushSilence()
}

func (s *Stream) emitSilence() {
	if s.idleTicks == 0 {
		return
	}
	rec := s.last
	rec.Flags |= FlagSilence
	rec.ConfigGen = uint16(s.idleTicks)
	s.idleTicks = 0
	s.writeSlot(rec)
}

func (s *Stream) flushSilence() {
	s.emitSilence()
}

func (s *Stream) writeSlot(sample Sample) {
	idx := s.posLocal & s.mask
	s.storage[idx] = sample
	s.posLocal++
	s.w.StoreRelease(s.posLocal)
}

// WritePosition is an acquire-load of the producer's write cursor W.
func (s *Stream) WritePosition() uint64 {
	return s.w.LoadAcquire()
}

// Read copies the sample at pos into out. It returns false if pos has not
// been written yet, or if it has already been overwritten (the consumer
// fell behind by more than Capacity).
func (s *Stream) Read(pos uint64, out *Sample) bool {
	w := s.w.LoadAcquire()
	if pos >= w {
		return false
	}
	if pos+s.capacity <= w {
		return false
	}
	*out = s.storage[pos&s.mask]
	return true
}

// Lag returns W - r for a consumer holding read position r.
func (s *Stream) Lag(r uint64) uint64 {
	return s.WritePosition() - r
}

// IsOverrun reports whether a consumer holding read position r has fallen
// behind by more than the stream's capacity.
func (s *Stream) IsOverrun(r uint64) bool {
	return s.Lag(r) > s.capacity
}
