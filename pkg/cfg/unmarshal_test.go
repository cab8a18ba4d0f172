package cfg_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tcpkit/tcpkit/pkg/cfg"
)

type serverSettings struct {
	Address      string        `cfg:"address"        default:":8000"`
	ReadTimeout  time.Duration `cfg:"read_timeout"   default:"5m"`
	MaxLineBytes int           `cfg:"max_line_bytes" default:"1048576" validate:"gt=0"`
}

type handlerSettings struct {
	Level    string                   `cfg:"level"   default:"info"`
	Backups  int                      `cfg:"backups" validate:"gte=0"`
	Handlers []string                 `cfg:"handlers"`
	Routes   map[string]routeSettings `cfg:"routes"`
}

type routeSettings struct {
	Level string `cfg:"level"`
}

func TestUnmarshalKeyDefaults(t *testing.T) {
	config, err := cfg.NewWithInterfaces(noEnv, cfg.WithConfigMap(map[string]any{
		"server": map[string]any{
			"address": ":9000",
		},
	}))
	require.NoError(t, err)

	settings := &serverSettings{}
	require.NoError(t, config.UnmarshalKey("server", settings))

	assert.Equal(t, ":9000", settings.Address)
	assert.Equal(t, 5*time.Minute, settings.ReadTimeout)
	assert.Equal(t, 1048576, settings.MaxLineBytes)
}

func TestUnmarshalKeyMissingSubtree(t *testing.T) {
	config, err := cfg.NewWithInterfaces(noEnv)
	require.NoError(t, err)

	settings := &serverSettings{}
	require.NoError(t, config.UnmarshalKey("server", settings))

	assert.Equal(t, ":8000", settings.Address)
}

func TestUnmarshalKeyEnvOverride(t *testing.T) {
	lookupEnv := func(key string) (string, bool) {
		switch key {
		case "SERVER_READ_TIMEOUT":
			return "30s", true
		case "SERVER_MAX_LINE_BYTES":
			return "512", true
		}

		return "", false
	}

	config, err := cfg.NewWithInterfaces(lookupEnv, cfg.WithConfigMap(map[string]any{
		"server": map[string]any{
			"read_timeout": "5m",
		},
	}))
	require.NoError(t, err)

	settings := &serverSettings{}
	require.NoError(t, config.UnmarshalKey("server", settings))

	assert.Equal(t, 30*time.Second, settings.ReadTimeout)
	assert.Equal(t, 512, settings.MaxLineBytes)
}

func TestUnmarshalKeyEnvOverrideInMap(t *testing.T) {
	lookupEnv := func(key string) (string, bool) {
		if key == "LOG_ROUTES_APP_LEVEL" {
			return "debug", true
		}

		return "", false
	}

	config, err := cfg.NewWithInterfaces(lookupEnv, cfg.WithConfigMap(map[string]any{
		"log": map[string]any{
			"routes": map[string]any{
				"app": map[string]any{
					"level": "info",
				},
			},
		},
	}))
	require.NoError(t, err)

	settings := &handlerSettings{}
	require.NoError(t, config.UnmarshalKey("log", settings))

	assert.Equal(t, "debug", settings.Routes["app"].Level)
}

func TestUnmarshalKeyValidation(t *testing.T) {
	config, err := cfg.NewWithInterfaces(noEnv, cfg.WithConfigMap(map[string]any{
		"server": map[string]any{
			"max_line_bytes": 0,
		},
	}))
	require.NoError(t, err)

	settings := &serverSettings{}
	err = config.UnmarshalKey("server", settings)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxLineBytes")
	assert.Contains(t, err.Error(), "gt")
}

func TestUnmarshalKeyStringSlice(t *testing.T) {
	config, err := cfg.NewWithInterfaces(noEnv, cfg.WithConfigMap(map[string]any{
		"log": map[string]any{
			"handlers": []any{"console", "file"},
		},
	}))
	require.NoError(t, err)

	settings := &handlerSettings{}
	require.NoError(t, config.UnmarshalKey("log", settings))

	assert.Equal(t, []string{"console", "file"}, settings.Handlers)
}

func TestUnmarshalKeyWrongType(t *testing.T) {
	config, err := cfg.NewWithInterfaces(noEnv, cfg.WithConfigMap(map[string]any{
		"server": ":8000",
	}))
	require.NoError(t, err)

	settings := &serverSettings{}
	assert.Error(t, config.UnmarshalKey("server", settings))
}
