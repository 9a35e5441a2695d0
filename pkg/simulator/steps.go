package simulator

import (
	"math"
	"math/big"
	"time"
)

// maxPrealloc bounds the records slice allocated up front; longer runs grow it by append.
const maxPrealloc = 1 << 16

// StepCount returns how many instants Simulate visits from start to end inclusive. It is
// exact for spans longer than time.Duration can hold and saturates at math.MaxInt.
func StepCount(start, end time.Time, step time.Duration) int {
	if step <= 0 || end.Before(start) {
		return 0
	}
	// Sub saturates at math.MaxInt64 (about 292 years)
	if d := end.Sub(start); d < math.MaxInt64 {
		return int(d/step) + 1
	}

	span := new(big.Int).Mul(big.NewInt(end.Unix()-start.Unix()), big.NewInt(int64(time.Second)))
	span.Add(span, big.NewInt(int64(end.Nanosecond()-start.Nanosecond())))
	span.Quo(span, big.NewInt(int64(step)))
	span.Add(span, big.NewInt(1))
	if !span.IsInt64() || span.Int64() > math.MaxInt {
		return math.MaxInt
	}
	return int(span.Int64())
}
