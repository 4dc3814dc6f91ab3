// Package safe provides numeric conversions with range checks.
package safe

import (
	"fmt"
	"math"
)

// Integer is any built-in integer type.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Uint32 converts v to uint32, failing when it does not fit.
func Uint32[T Integer](v T) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("value %d out of uint32 range", v)
	}
	return uint32(v), nil
}

// Int16 converts v to int16, failing when it does not fit.
func Int16[T Integer](v T) (int16, error) {
	if v < 0 {
		if int64(v) < math.MinInt16 {
			return 0, fmt.Errorf("value %d out of int16 range", v)
		}
		return int16(v), nil
	}
	if uint64(v) > math.MaxInt16 {
		return 0, fmt.Errorf("value %d out of int16 range", v)
	}
	return int16(v), nil
}

// Int16FromFloat converts a whole-valued float to int16.
func Int16FromFloat(f float64) (int16, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("value %v is not a whole number", f)
	}
	if f < math.MinInt16 || f > math.MaxInt16 {
		return 0, fmt.Errorf("value %v out of int16 range", f)
	}
	return int16(f), nil
}
