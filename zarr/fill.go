package zarr

import (
	"fmt"
	"math"
	"reflect"
)

// zeroFill is the fill_value written for arrays of T.
func zeroFill[T any]() interface{} {
	var zero T
	switch any(zero).(type) {
	case bool:
		return false
	case complex64, complex128:
		return nil
	}
	return float64(0)
}

// fillValue converts a decoded fill_value into a T. A null fill value is the
// zero value of T.
func fillValue[T any](v interface{}) (T, error) {
	var out T
	if v == nil {
		return out, nil
	}
	rv := reflect.ValueOf(&out).Elem()
	mismatch := fmt.Errorf("%w: fill value %v (%T) for %T", ErrInvalidMeta, v, v, out)

	switch x := v.(type) {
	case bool:
		if rv.Kind() != reflect.Bool {
			return out, mismatch
		}
		rv.SetBool(x)
	case float64:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			rv.SetInt(int64(x))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			rv.SetUint(uint64(x))
		case reflect.Float32, reflect.Float64:
			rv.SetFloat(x)
		case reflect.Complex64, reflect.Complex128:
			rv.SetComplex(complex(x, 0))
		case reflect.Bool:
			rv.SetBool(x != 0)
		default:
			return out, mismatch
		}
	case string:
		var f float64
		switch x {
		case FillValueNaN:
			f = math.NaN()
		case FillValueInfinity:
			f = math.Inf(1)
		case FillValueNegativeInfinity:
			f = math.Inf(-1)
		default:
			return out, mismatch
		}
		if k := rv.Kind(); k != reflect.Float32 && k != reflect.Float64 {
			return out, mismatch
		}
		rv.SetFloat(f)
	default:
		return out, mismatch
	}
	return out, nil
}
