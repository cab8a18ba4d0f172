package cfg

import (
	"strings"
)

type Option func(cfg *config) error

func WithConfigFile(filePath string) Option {
	return func(cfg *config) error {
		return readConfigFromFile(cfg, filePath)
	}
}

func WithConfigMap(settings map[string]any) Option {
	return func(cfg *config) error {
		cfg.settings = mergeMaps(cfg.settings, settings)

		return nil
	}
}

func WithConfigSetting(key string, value any) Option {
	return func(cfg *config) error {
		settings := map[string]any{}

		current := settings
		parts := strings.Split(key, ".")
		for _, part := range parts[:len(parts)-1] {
			next := map[string]any{}
			current[part] = next
			current = next
		}
		current[parts[len(parts)-1]] = value

		cfg.settings = mergeMaps(cfg.settings, settings)

		return nil
	}
}

func WithEnvKeyPrefix(prefix string) Option {
	return func(cfg *config) error {
		cfg.envKeyPrefix = prefix

		return nil
	}
}

func WithEnvKeyReplacer(replacer *strings.Replacer) Option {
	return func(cfg *config) error {
		cfg.envKeyReplacer = replacer

		return nil
	}
}
