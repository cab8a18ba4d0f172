package log

import (
	"fmt"
	"reflect"
	"time"
)

// Fields is a map of key-value pairs to add structured data to a log record.
type Fields map[string]any

func mergeFields(receiver Fields, input Fields) Fields {
	newMap := make(Fields, len(receiver)+len(input))

	for k, v := range receiver {
		newMap[k] = prepareForLog(v)
	}

	for k, v := range input {
		newMap[k] = prepareForLog(v)
	}

	return newMap
}

func prepareForLog(v any) any {
	switch t := v.(type) {
	case error:
		// otherwise errors are ignored by `encoding/json`
		return t.Error()
	case time.Time:
		return v
	case map[string]any:
		// deep copy nested maps so we own the object completely
		return mergeFields(t, nil)

	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Map:
			iter := rv.MapRange()
			newMap := make(map[string]any, rv.Len())

			for iter.Next() {
				newMap[fmt.Sprint(iter.Key().Interface())] = prepareForLog(iter.Value().Interface())
			}

			return newMap

		case reflect.Ptr, reflect.Interface:
			if rv.IsNil() {
				return nil
			}

			return prepareForLog(rv.Elem().Interface())

		case reflect.Slice, reflect.Array:
			if rv.Kind() == reflect.Slice && rv.IsNil() {
				return nil
			}

			newArray := make([]any, rv.Len())

			for i := range newArray {
				newArray[i] = prepareForLog(rv.Index(i).Interface())
			}

			return newArray

		default:
			return v
		}
	}
}
