package log

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/tcpkit/tcpkit/pkg/cfg"
)

const (
	FormatConsole = "console"
	FormatJson    = "json"
	FormatPattern = "pattern"
)

// Formatter renders a single log record into the bytes written by a handler.
type Formatter func(timestamp time.Time, level int, name string, msg string, err error, fields Fields) ([]byte, error)

type Formatters map[string]Formatter

var builtinFormatters = map[string]Formatter{
	FormatConsole: FormatterConsole,
	FormatJson:    FormatterJson,
}

type FormatterSettings struct {
	Type            string `cfg:"type"             default:"pattern" validate:"oneof=pattern console json"`
	Format          string `cfg:"format"`
	TimestampFormat string `cfg:"timestamp_format" default:"2006-01-02 15:04:05.000"`
}

// newFormattersFromConfig builds the named formatters declared below
// log.formatters, on top of the builtin console and json formatters.
// Declared formatters may not shadow a builtin name.
func newFormattersFromConfig(config cfg.Config) (Formatters, error) {
	settings := &LoggerSettings{}
	if err := config.UnmarshalKey(ConfigKey, settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal logger settings: %w", err)
	}

	formatters := make(Formatters, len(settings.Formatters)+len(builtinFormatters))
	for name, formatter := range builtinFormatters {
		formatters[name] = formatter
	}

	var result error
	for name := range settings.Formatters {
		if _, ok := builtinFormatters[name]; ok {
			result = multierror.Append(result, fmt.Errorf("formatter %q shadows a builtin formatter", name))

			continue
		}

		formatterSettings := &FormatterSettings{}
		key := getFormatterConfigKey(name)
		if err := config.UnmarshalKey(key, formatterSettings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal formatter settings for key %q: %w", key, err)
		}

		formatter, err := newFormatter(name, formatterSettings)
		if err != nil {
			result = multierror.Append(result, err)

			continue
		}

		formatters[name] = formatter
	}

	if result != nil {
		return nil, result
	}

	return formatters, nil
}

func newFormatter(name string, settings *FormatterSettings) (Formatter, error) {
	switch settings.Type {
	case FormatConsole:
		return FormatterConsole, nil
	case FormatJson:
		return FormatterJson, nil
	case FormatPattern:
		return newFormatterPattern(name, settings)
	default:
		return nil, fmt.Errorf("there is no formatter of type %s", settings.Type)
	}
}

func getFormatterConfigKey(name string) string {
	return fmt.Sprintf("%s.formatters.%s", ConfigKey, name)
}
