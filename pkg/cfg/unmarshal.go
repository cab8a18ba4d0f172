package cfg

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

var validate = validator.New()

// UnmarshalKey decodes the subtree below key into val. Fields carrying a
// `default` struct tag are populated first, environment variables matching
// the flattened key win over values from the settings map. Afterwards the
// `validate` struct tags are enforced.
func (c *config) UnmarshalKey(key string, val any) error {
	if err := applyDefaults(val); err != nil {
		return fmt.Errorf("can not apply defaults for key %q: %w", key, err)
	}

	settings := map[string]any{}
	if raw, ok := c.resolve(key); ok {
		msi, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("config key %q does not hold a map", key)
		}

		settings = msi
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "cfg",
		Result:           val,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return fmt.Errorf("can not create decoder for key %q: %w", key, err)
	}

	if err = decoder.Decode(settings); err != nil {
		return fmt.Errorf("can not decode settings for key %q: %w", key, err)
	}

	if err = c.applyEnvOverrides(key, reflect.ValueOf(val).Elem()); err != nil {
		return fmt.Errorf("can not apply env overrides for key %q: %w", key, err)
	}

	if err = validateStruct(key, val); err != nil {
		return err
	}

	return nil
}

func applyDefaults(val any) error {
	rv := reflect.ValueOf(val)

	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("value of type %T is not a pointer to a struct", val)
	}

	return applyDefaultsToStruct(rv.Elem())
}

func applyDefaultsToStruct(rv reflect.Value) error {
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		value := rv.Field(i)

		if !value.CanSet() {
			continue
		}

		if value.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := applyDefaultsToStruct(value); err != nil {
				return err
			}

			continue
		}

		def, ok := field.Tag.Lookup("default")
		if !ok || !value.IsZero() {
			continue
		}

		if err := setFromString(value, def); err != nil {
			return fmt.Errorf("can not apply default %q to field %s: %w", def, field.Name, err)
		}
	}

	return nil
}

func (c *config) applyEnvOverrides(prefix string, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Struct:
		if rv.Type() == reflect.TypeOf(time.Time{}) {
			return c.applyEnvLeaf(prefix, rv)
		}

		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			field := rt.Field(i)
			value := rv.Field(i)

			if !value.CanSet() {
				continue
			}

			name := field.Tag.Get("cfg")
			if name == "" {
				name = strings.ToLower(field.Name)
			}

			if err := c.applyEnvOverrides(fmt.Sprintf("%s.%s", prefix, name), value); err != nil {
				return err
			}
		}

		return nil

	case reflect.Map:
		for _, key := range rv.MapKeys() {
			elem := reflect.New(rv.Type().Elem()).Elem()
			elem.Set(rv.MapIndex(key))

			if err := c.applyEnvOverrides(fmt.Sprintf("%s.%s", prefix, key.String()), elem); err != nil {
				return err
			}

			rv.SetMapIndex(key, elem)
		}

		return nil

	default:
		return c.applyEnvLeaf(prefix, rv)
	}
}

func (c *config) applyEnvLeaf(key string, rv reflect.Value) error {
	raw, ok := c.envValue(key)
	if !ok {
		return nil
	}

	if err := setFromString(rv, raw); err != nil {
		return fmt.Errorf("can not apply env value %q to key %s: %w", raw, key, err)
	}

	return nil
}

func setFromString(rv reflect.Value, raw string) error {
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}

		return setFromString(rv.Elem(), raw)
	}

	switch {
	case rv.Type() == reflect.TypeOf(time.Duration(0)):
		d, err := cast.ToDurationE(raw)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(d))

	case rv.Type() == reflect.TypeOf(time.Time{}):
		t, err := cast.ToTimeE(raw)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(t))

	case rv.Kind() == reflect.String:
		rv.SetString(raw)

	case rv.Kind() == reflect.Bool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return err
		}
		rv.SetBool(b)

	case rv.Kind() >= reflect.Int && rv.Kind() <= reflect.Int64:
		i, err := cast.ToInt64E(raw)
		if err != nil {
			return err
		}
		rv.SetInt(i)

	case rv.Kind() >= reflect.Uint && rv.Kind() <= reflect.Uint64:
		i, err := cast.ToUint64E(raw)
		if err != nil {
			return err
		}
		rv.SetUint(i)

	case rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return err
		}
		rv.SetFloat(f)

	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.String:
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		rv.Set(reflect.ValueOf(parts))

	default:
		return fmt.Errorf("unsupported field type %s", rv.Type())
	}

	return nil
}

func validateStruct(key string, val any) error {
	rv := reflect.ValueOf(val)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := validate.Struct(val)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("can not validate settings for key %q: %w", key, err)
	}

	var result error
	for _, fieldErr := range validationErrs {
		result = multierror.Append(result, fmt.Errorf(
			"invalid setting %s for key %q: validation %q failed on value %q",
			fieldErr.Namespace(), key, fieldErr.Tag(), fmt.Sprintf("%v", fieldErr.Value()),
		))
	}

	return result
}
