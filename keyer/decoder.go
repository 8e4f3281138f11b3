package keyer

// DecodedChar is one character (or a synthesized space for a word gap)
// recovered by the decoder, with the virtual timestamp it was recognised
// at (spec §6 "Decoded-text output channel").
type DecodedChar struct {
	Char        rune
	TimestampUs int64
}

// emaAlpha is the decoder's timing-estimate smoothing factor (spec §4.10).
const emaAlpha = 1.0 / 8.0

// Spurious mark rejection bounds (spec §4.10).
const (
	minPlausibleMarkUs = 20_000
	maxPlausibleMarkUs = 2_000_000
)

// warmupClassifications is the number of classified marks after which the
// decoder is considered to have a trustworthy dit_avg estimate (spec
// §4.10 "Warm-up").
const warmupClassifications = 4

// Decoder recovers text from a best-effort consumer's keying samples by
// classifying mark/space durations against an adaptively estimated dit
// duration (spec §4.10). It never back-pressures the stream.
type Decoder struct {
	consumer   *BestEffortConsumer
	tickMicros int64

	ditAvg          float64
	classifications int

	haveLevel     bool
	curLevel      bool
	segDurationUs int64

	virtualClockUs int64
	lastRealEventUs int64

	pattern    []byte
	errorCount int

	ring        []DecodedChar
	ringWritten uint64
	ringPop     uint64
}

// NewDecoder returns a decoder seeded from nominalWPM, reading from
// consumer, with an output ring of outputCapacity characters.
func NewDecoder(consumer *BestEffortConsumer, tickMicros int64, nominalWPM int, outputCapacity int) *Decoder {
	return &Decoder{
		consumer:   consumer,
		tickMicros: tickMicros,
		ditAvg:     float64(1_200_000 / nominalWPM),
		ring:       make([]DecodedChar, outputCapacity),
	}
}

// DitAvgMicros returns the decoder's current adaptive dit estimate.
func (d *Decoder) DitAvgMicros() float64 { return d.ditAvg }

// ErrorCount returns the number of unknown patterns seen so far.
func (d *Decoder) ErrorCount() int { return d.errorCount }

// WarmedUp reports whether the decoder has classified enough marks to
// trust its adaptive timing estimate.
func (d *Decoder) WarmedUp() bool { return d.classifications >= warmupClassifications }

// Tick drains everything currently available from the underlying consumer
// and classifies it, then checks for inactivity (spec §4.10).
func (d *Decoder) Tick(nowUs int64) {
	gotData := false
	for {
		res, sample := d.consumer.Tick()
		if res == ResultNoData {
			break
		}
		if res == ResultOK {
			d.ingest(sample)
			gotData = true
		}
	}

	if gotData {
		d.lastRealEventUs = nowUs
		return
	}

	if d.haveLevel && d.lastRealEventUs != 0 {
		if float64(nowUs-d.lastRealEventUs) > 7*d.ditAvg {
			d.finalizeSegment(d.curLevel, d.segDurationUs)
			d.haveLevel = false
			d.segDurationUs = 0
		}
	}
}

func (d *Decoder) ingest(sample Sample) {
	if ticks, ok := sample.Silence(); ok {
		d.advance(sample.LocalKey, int64(ticks)*d.tickMicros)
		return
	}
	d.advance(sample.LocalKey, d.tickMicros)
}

// advance folds durUs more ticks of level into the current segment, or, if
// level differs from the segment in progress, finalises that segment and
// starts a new one.
func (d *Decoder) advance(level bool, durUs int64) {
	if !d.haveLevel {
		d.haveLevel = true
		d.curLevel = level
		d.segDurationUs = 0
	}
	if level == d.curLevel {
		d.segDurationUs += durUs
		d.virtualClockUs += durUs
		return
	}
	d.finalizeSegment(d.curLevel, d.segDurationUs)
	d.curLevel = level
	d.segDurationUs = durUs
	d.virtualClockUs += durUs
}

func (d *Decoder) finalizeSegment(wasMark bool, durUs int64) {
	if wasMark {
		d.classifyMark(durUs)
	} else {
		d.classifySpace(durUs)
	}
}

func (d *Decoder) classifyMark(durUs int64) {
	if durUs < minPlausibleMarkUs || durUs > maxPlausibleMarkUs {
		return // spurious; ignored, not counted as a classification
	}

	isDah := float64(durUs) >= 2*d.ditAvg
	if len(d.pattern) < maxProsignTagLen {
		if isDah {
			d.pattern = append(d.pattern, '-')
		} else {
			d.pattern = append(d.pattern, '.')
		}
	}

	sample := float64(durUs)
	if isDah {
		sample /= 3
	}
	d.ditAvg += emaAlpha * (sample - d.ditAvg)
	d.classifications++
}

func (d *Decoder) classifySpace(durUs int64) {
	switch {
	case float64(durUs) < 2*d.ditAvg:
		// intra-character gap: nothing to flush.
	case float64(durUs) < 5*d.ditAvg:
		d.flushPattern(false)
	default:
		d.flushPattern(true)
	}
}

func (d *Decoder) flushPattern(wordGap bool) {
	if len(d.pattern) > 0 {
		if ch, ok := patternToChar[string(d.pattern)]; ok {
			d.emit(ch, d.virtualClockUs)
		} else {
			d.errorCount++
		}
		d.pattern = d.pattern[:0]
	}
	if wordGap {
		d.emit(' ', d.virtualClockUs)
	}
}

func (d *Decoder) emit(ch rune, ts int64) {
	idx := d.ringWritten % uint64(len(d.ring))
	d.ring[idx] = DecodedChar{Char: ch, TimestampUs: ts}
	d.ringWritten++
}

// PopOne dequeues the oldest unread decoded character.
func (d *Decoder) PopOne() (DecodedChar, bool) {
	if d.ringPop >= d.ringWritten {
		return DecodedChar{}, false
	}
	if d.ringWritten-d.ringPop > uint64(len(d.ring)) {
		d.ringPop = d.ringWritten - uint64(len(d.ring))
	}
	idx := d.ringPop % uint64(len(d.ring))
	c := d.ring[idx]
	d.ringPop++
	return c, true
}

// CopyRecent returns (up to) the n most recently decoded characters,
// without consuming them from the PopOne cursor.
func (d *Decoder) CopyRecent(n int) []DecodedChar {
	if n > len(d.ring) {
		n = len(d.ring)
	}
	if uint64(n) > d.ringWritten {
		n = int(d.ringWritten)
	}
	out := make([]DecodedChar, n)
	base := d.ringWritten - uint64(n)
	for i := 0; i < n; i++ {
		out[i] = d.ring[(base+uint64(i))%uint64(len(d.ring))]
	}
	return out
}
