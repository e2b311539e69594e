package random

import "math"

// Integer returns a uniformly distributed integer in [min, max].
func Integer(src Source, min, max int64) (int64, error) {
	if min > max {
		return 0, &InvalidRangeError{Min: min, Max: max}
	}
	if min == max {
		return min, nil
	}

	// Width of the range minus one; always fits in uint64.
	width := uint64(max) - uint64(min)
	if width < math.MaxInt64 {
		return min + src.Int64N(int64(width+1)), nil
	}

	// The range is wider than Int64N can express. Build 64 random bits and
	// reject anything past the end of the range; at least half the draws land.
	for {
		u := uint64(src.Int64N(1<<32))<<32 | uint64(src.Int64N(1<<32))
		if u <= width {
			return int64(uint64(min) + u), nil
		}
	}
}
