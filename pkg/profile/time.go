package profile

import (
	"math"
	"time"
)

// Epoch is the zero point of every date_time field: 1989-12-31T00:00:00Z.
var Epoch = time.Date(1989, time.December, 31, 0, 0, 0, 0, time.UTC)

// EpochOffset is the number of seconds between the Unix epoch and Epoch.
const EpochOffset int64 = 631065600

// MinDateTime is the smallest date_time value that is absolute. Smaller
// values are seconds relative to device power up.
const MinDateTime uint32 = 0x10000000

// ToTime converts a date_time value to calendar time.
func ToTime(raw uint32) time.Time {
	return time.Unix(int64(raw)+EpochOffset, 0).UTC()
}

// FromTime converts calendar time to a date_time value. Times before Epoch
// clamp to zero.
func FromTime(t time.Time) uint32 {
	s := t.Unix() - EpochOffset
	if s < 0 {
		return 0
	}
	if s > math.MaxUint32-1 {
		return math.MaxUint32 - 1
	}
	return uint32(s)
}

const semicircleScale = 180.0 / (1 << 31)

// SemicirclesToDegrees converts a fixed point semicircle angle to degrees.
func SemicirclesToDegrees(raw int32) float64 {
	return float64(raw) * semicircleScale
}

// DegreesToSemicircles converts degrees to the nearest semicircle value.
func DegreesToSemicircles(deg float64) int32 {
	v := math.Round(deg / semicircleScale)
	if v > math.MaxInt32 {
		return math.MaxInt32 - 1
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}
