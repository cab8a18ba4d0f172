package log

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/tcpkit/tcpkit/pkg/cfg"
)

type Handler interface {
	Level() int
	Log(timestamp time.Time, level int, name string, msg string, err error, fields Fields) error
}

type HandlerFactory func(config cfg.Config, formatters Formatters, name string) (Handler, error)

var handlerFactories = map[string]HandlerFactory{}

func AddHandlerFactory(typ string, factory HandlerFactory) {
	handlerFactories[typ] = factory
}

func newHandlersFromConfig(config cfg.Config, formatters Formatters) (map[string]Handler, error) {
	settings := &LoggerSettings{}
	if err := config.UnmarshalKey(ConfigKey, settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal logger settings: %w", err)
	}

	var result error
	handlers := make(map[string]Handler, len(settings.Handlers))

	for name, handlerSettings := range settings.Handlers {
		handlerFactory, ok := handlerFactories[handlerSettings.Type]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("there is no logging handler of type %s for handler %q", handlerSettings.Type, name))

			continue
		}

		handler, err := handlerFactory(config, formatters, name)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("can not create logging handler %q of type %s: %w", name, handlerSettings.Type, err))

			continue
		}

		handlers[name] = handler
	}

	if result != nil {
		return nil, result
	}

	return handlers, nil
}

func UnmarshalHandlerSettingsFromConfig(config cfg.Config, name string, settings any) error {
	handlerConfigKey := getHandlerConfigKey(name)
	if err := config.UnmarshalKey(handlerConfigKey, settings); err != nil {
		return fmt.Errorf("failed to unmarshal handler settings for key %q: %w", handlerConfigKey, err)
	}

	return nil
}

func getHandlerConfigKey(name string) string {
	return fmt.Sprintf("%s.handlers.%s", ConfigKey, name)
}

func resolveLevel(level string) (int, error) {
	priority, ok := LevelPriority(level)
	if !ok {
		return 0, fmt.Errorf("there is no log level %q", level)
	}

	return priority, nil
}

func resolveFormatter(formatters Formatters, name string) (Formatter, error) {
	formatter, ok := formatters[name]
	if !ok {
		return nil, fmt.Errorf("there is no formatter %q", name)
	}

	return formatter, nil
}
