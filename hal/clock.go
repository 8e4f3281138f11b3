// Package hal provides concrete collaborator implementations for the
// keyer.GPIO/AudioOut/Clock/ConfigStore/TextInput/DecodedOutput/
// NetForwarder interfaces (keyer/ports.go), wired together by cmd/cwkeyerd.
package hal

import "time"

// SystemClock is keyer.Clock backed by Go's monotonic clock reading.
type SystemClock struct{}

// clockEpoch anchors SystemClock: its wall time sets the scale, its
// monotonic reading drives every later value.
var clockEpoch = time.Now()

// NowMicros returns the current time as a microsecond count, matching the
// resolution the keying stream ticks at. It advances with the monotonic
// clock, so a wall-clock step never moves it backwards.
func (SystemClock) NowMicros() int64 {
	return clockEpoch.UnixMicro() + time.Since(clockEpoch).Microseconds()
}
