package cfg

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

type LookupEnv func(key string) (string, bool)

//go:generate go run github.com/vektra/mockery/v2 --name Config
type Config interface {
	AllKeys() []string
	Get(key string, optionalDefault ...any) any
	GetBool(key string, optionalDefault ...bool) bool
	GetInt(key string, optionalDefault ...int) int
	GetString(key string, optionalDefault ...string) string
	GetStringSlice(key string, optionalDefault ...[]string) []string
	IsSet(key string) bool
	UnmarshalKey(key string, val any) error
}

type config struct {
	lookupEnv      LookupEnv
	settings       map[string]any
	envKeyPrefix   string
	envKeyReplacer *strings.Replacer
}

var DefaultEnvKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

func New(options ...Option) (Config, error) {
	return NewWithInterfaces(os.LookupEnv, options...)
}

func NewWithInterfaces(lookupEnv LookupEnv, options ...Option) (Config, error) {
	cfg := &config{
		lookupEnv:      lookupEnv,
		settings:       map[string]any{},
		envKeyReplacer: DefaultEnvKeyReplacer,
	}

	for _, opt := range options {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("can not apply config option: %w", err)
		}
	}

	return cfg, nil
}

func (c *config) AllKeys() []string {
	keys := make([]string, 0)
	flattenKeys("", c.settings, &keys)
	sort.Strings(keys)

	return keys
}

func (c *config) Get(key string, optionalDefault ...any) any {
	if value, ok := c.envValue(key); ok {
		return value
	}

	if value, ok := c.resolve(key); ok {
		return value
	}

	if len(optionalDefault) > 0 {
		return optionalDefault[0]
	}

	return nil
}

func (c *config) GetBool(key string, optionalDefault ...bool) bool {
	value := c.Get(key)

	if value == nil {
		if len(optionalDefault) > 0 {
			return optionalDefault[0]
		}

		return false
	}

	return cast.ToBool(value)
}

func (c *config) GetInt(key string, optionalDefault ...int) int {
	value := c.Get(key)

	if value == nil {
		if len(optionalDefault) > 0 {
			return optionalDefault[0]
		}

		return 0
	}

	return cast.ToInt(value)
}

func (c *config) GetString(key string, optionalDefault ...string) string {
	value := c.Get(key)

	if value == nil {
		if len(optionalDefault) > 0 {
			return optionalDefault[0]
		}

		return ""
	}

	return cast.ToString(value)
}

func (c *config) GetStringSlice(key string, optionalDefault ...[]string) []string {
	value := c.Get(key)

	if value == nil {
		if len(optionalDefault) > 0 {
			return optionalDefault[0]
		}

		return nil
	}

	slice := cast.ToStringSlice(value)
	if slice == nil && len(optionalDefault) > 0 {
		return optionalDefault[0]
	}

	return slice
}

func (c *config) IsSet(key string) bool {
	if _, ok := c.envValue(key); ok {
		return true
	}

	_, ok := c.resolve(key)

	return ok
}

// resolve walks the nested settings map along the dot separated key.
func (c *config) resolve(key string) (any, bool) {
	var current any = c.settings

	for _, part := range strings.Split(key, ".") {
		msi, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		if current, ok = msi[part]; !ok {
			return nil, false
		}
	}

	return current, true
}

func (c *config) envKey(key string) string {
	if c.envKeyPrefix != "" {
		key = fmt.Sprintf("%s.%s", c.envKeyPrefix, key)
	}

	if c.envKeyReplacer != nil {
		key = c.envKeyReplacer.Replace(key)
	}

	return strings.ToUpper(key)
}

func (c *config) envValue(key string) (string, bool) {
	return c.lookupEnv(c.envKey(key))
}

func flattenKeys(prefix string, value any, keys *[]string) {
	msi, ok := value.(map[string]any)
	if !ok {
		*keys = append(*keys, prefix)

		return
	}

	for k, v := range msi {
		key := k
		if prefix != "" {
			key = fmt.Sprintf("%s.%s", prefix, k)
		}

		flattenKeys(key, v, keys)
	}
}
