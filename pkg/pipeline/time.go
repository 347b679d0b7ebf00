package pipeline

import (
	"fmt"
	"math"
)

// TimeBase is the tick rate of all presentation timestamps (ticks per second).
// Durations shorter than 1/600 s are not representable.
const TimeBase int64 = 600

// Time is a rational timestamp: Value ticks over Timescale ticks per second.
type Time struct {
	Value     int64
	Timescale int64
}

// NewTime returns a timestamp of value ticks at TimeBase.
func NewTime(value int64) Time {
	return Time{Value: value, Timescale: TimeBase}
}

// Seconds returns the timestamp as floating-point seconds.
func (t Time) Seconds() float64 {
	if t.Timescale == 0 {
		return 0
	}
	return float64(t.Value) / float64(t.Timescale)
}

// Rescale converts the timestamp to another timescale, rounding to nearest.
func (t Time) Rescale(timescale int64) int64 {
	if t.Timescale == timescale || t.Timescale == 0 {
		return t.Value
	}
	return int64(math.Round(float64(t.Value) * float64(timescale) / float64(t.Timescale)))
}

// String returns the timestamp as VALUE/TIMESCALE.
func (t Time) String() string {
	return fmt.Sprintf("%d/%d", t.Value, t.Timescale)
}

// MaxTickDuration is the longest frame duration in ticks. Sample durations
// are stored as 32-bit values.
const MaxTickDuration int64 = math.MaxUint32

// TickDuration returns the per-frame duration in TimeBase ticks, defined as
// round(TimeBase / secondsPerImage). The result is clamped to
// [1, MaxTickDuration]; Options.Validate rejects values above the upper bound.
func TickDuration(secondsPerImage float64) int64 {
	ticks := math.Round(float64(TimeBase) / secondsPerImage)
	if !(ticks >= 1) {
		return 1
	}
	if ticks > float64(MaxTickDuration) {
		return MaxTickDuration
	}
	return int64(ticks)
}

// PresentationTime returns the timestamp of frame index i. The first frame is
// always pinned to zero.
func PresentationTime(i int, tick int64) Time {
	if i == 0 {
		return NewTime(0)
	}
	return NewTime(int64(i) * tick)
}
