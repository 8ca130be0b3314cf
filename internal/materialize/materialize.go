// Package materialize decodes a resolved configuration tree into a
// caller-defined Go value.
package materialize

import (
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/redhatinsights/hydroconf/internal/value"
)

// TagName is the struct tag naming the configuration key of a field. Fields
// without the tag match their key case-insensitively.
const TagName = "hydro"

// Options tunes decoding.
type Options struct {
	// AllowUnset lets target fields without a configuration key keep their
	// current value instead of failing.
	AllowUnset bool
}

// Into decodes tree into target, which must be a non-nil pointer. A string
// is never converted into a number or boolean field, and a number must fit
// the field it is decoded into.
func Into(tree value.Value, target any, opts Options) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     target,
		TagName:    TagName,
		ErrorUnset: !opts.AllowUnset,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
			numberRangeHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("cannot decode into %T: %w", target, err)
	}
	if err := dec.Decode(tree.Interface()); err != nil {
		return err
	}
	return nil
}

// numberRangeHookFunc rejects numbers that would be truncated or wrapped by
// the numeric field they are decoded into. Tree numbers are int64 or
// float64; anything else is left to the decoder.
func numberRangeHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		zero := reflect.Zero(to)
		switch to.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			switch n := data.(type) {
			case int64:
				if zero.OverflowInt(n) {
					return nil, outOfRange(data, to)
				}
			case float64:
				if n != math.Trunc(n) {
					return nil, fmt.Errorf("%v is not a whole number for %s", data, to)
				}
				if n < math.MinInt64 || n >= math.MaxInt64 || zero.OverflowInt(int64(n)) {
					return nil, outOfRange(data, to)
				}
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			switch n := data.(type) {
			case int64:
				if n < 0 || zero.OverflowUint(uint64(n)) {
					return nil, outOfRange(data, to)
				}
			case float64:
				if n != math.Trunc(n) {
					return nil, fmt.Errorf("%v is not a whole number for %s", data, to)
				}
				if n < 0 || n >= math.MaxUint64 || zero.OverflowUint(uint64(n)) {
					return nil, outOfRange(data, to)
				}
			}
		case reflect.Float32, reflect.Float64:
			if n, ok := data.(float64); ok && !math.IsInf(n, 0) && !math.IsNaN(n) && zero.OverflowFloat(n) {
				return nil, outOfRange(data, to)
			}
		}
		return data, nil
	}
}

func outOfRange(data interface{}, to reflect.Type) error {
	return fmt.Errorf("%v is out of range for %s", data, to)
}
