package log

import (
	"fmt"
	"io"
	"os"

	"github.com/tcpkit/tcpkit/pkg/cfg"
)

func init() {
	AddHandlerFactory("console", handlerConsoleFactory)
}

type HandlerConsoleSettings struct {
	Level     string `cfg:"level"     default:"info"`
	Formatter string `cfg:"formatter" default:"console"`
	Stream    string `cfg:"stream"    default:"stderr" validate:"oneof=stdout stderr"`
}

func handlerConsoleFactory(config cfg.Config, formatters Formatters, name string) (Handler, error) {
	settings := &HandlerConsoleSettings{}
	if err := UnmarshalHandlerSettingsFromConfig(config, name, settings); err != nil {
		return nil, err
	}

	level, err := resolveLevel(settings.Level)
	if err != nil {
		return nil, err
	}

	formatter, err := resolveFormatter(formatters, settings.Formatter)
	if err != nil {
		return nil, err
	}

	var stream io.Writer
	switch settings.Stream {
	case "stdout":
		stream = os.Stdout
	case "stderr":
		stream = os.Stderr
	default:
		return nil, fmt.Errorf("there is no console stream %q", settings.Stream)
	}

	return NewHandlerIoWriter(level, formatter, NewSyncWriter(stream)), nil
}
