package log

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/tcpkit/tcpkit/pkg/cfg"
	"github.com/tcpkit/tcpkit/pkg/clock"
)

// Factory builds the immutable logger hierarchy out of the configuration:
// formatters first, handlers referencing formatters by name, then the logger
// routing rules referencing handlers by name, with the root rule as the final
// fallback. All dangling references are collected and reported together.
type Factory struct {
	clock    clock.Clock
	handlers map[string]Handler
	root     *node
	nodes    map[string]*node
}

func NewFactory(config cfg.Config, clk clock.Clock) (*Factory, error) {
	settings := &LoggerSettings{}
	if err := config.UnmarshalKey(ConfigKey, settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal logger settings: %w", err)
	}

	if settings.Version != 1 {
		return nil, fmt.Errorf("there is no logging config version %d", settings.Version)
	}

	formatters, err := newFormattersFromConfig(config)
	if err != nil {
		return nil, err
	}

	handlers, err := newHandlersFromConfig(config, formatters)
	if err != nil {
		return nil, err
	}

	factory := &Factory{
		clock:    clk,
		handlers: handlers,
		nodes:    make(map[string]*node, len(settings.Loggers)),
	}

	var result error

	rootLevel := PriorityInfo
	if level, err := resolveLevel(settings.Root.Level); err != nil {
		result = multierror.Append(result, fmt.Errorf("root logger: %w", err))
	} else {
		rootLevel = level
	}

	factory.root = &node{
		name:     "root",
		level:    rootLevel,
		handlers: factory.resolveHandlerRefs("root", settings.Root.Handlers, &result),
	}

	// parents carry shorter names, so resolving in segment count order
	// guarantees a parent's effective level is known before its children
	names := make([]string, 0, len(settings.Loggers))
	for name := range settings.Loggers {
		factory.nodes[name] = &node{name: name}
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		di, dj := strings.Count(names[i], "."), strings.Count(names[j], ".")
		if di != dj {
			return di < dj
		}

		return names[i] < names[j]
	})

	for _, name := range names {
		route := settings.Loggers[name]
		n := factory.nodes[name]

		n.parent = factory.nearestAncestor(name)
		n.handlers = factory.resolveHandlerRefs(name, route.Handlers, &result)
		n.propagate = route.Propagate == nil || *route.Propagate

		if route.Level == "" {
			n.level = n.parent.level

			continue
		}

		if level, err := resolveLevel(route.Level); err != nil {
			result = multierror.Append(result, fmt.Errorf("logger %q: %w", name, err))
		} else {
			n.level = level
		}
	}

	if result != nil {
		return nil, result
	}

	return factory, nil
}

// Logger returns the configured logger for name. Unconfigured names get a
// derived logger which inherits the effective level of the nearest configured
// ancestor and propagates every record to it.
func (f *Factory) Logger(name string) Logger {
	if n, ok := f.nodes[name]; ok {
		return newLogger(f.clock, n)
	}

	ancestor := f.nearestAncestor(name)

	return newLogger(f.clock, &node{
		name:      name,
		level:     ancestor.level,
		propagate: true,
		parent:    ancestor,
	})
}

// Root returns the logger at the top of the hierarchy.
func (f *Factory) Root() Logger {
	return newLogger(f.clock, f.root)
}

// Close closes every handler holding on to a file.
func (f *Factory) Close() error {
	var result error

	for name, handler := range f.handlers {
		closer, ok := handler.(io.Closer)
		if !ok {
			continue
		}

		if err := closer.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("can not close handler %q: %w", name, err))
		}
	}

	return result
}

func (f *Factory) nearestAncestor(name string) *node {
	for {
		idx := strings.LastIndex(name, ".")
		if idx < 0 {
			return f.root
		}

		name = name[:idx]
		if n, ok := f.nodes[name]; ok {
			return n
		}
	}
}

func (f *Factory) resolveHandlerRefs(loggerName string, refs []string, result *error) []Handler {
	handlers := make([]Handler, 0, len(refs))

	for _, ref := range refs {
		handler, ok := f.handlers[ref]
		if !ok {
			*result = multierror.Append(*result, fmt.Errorf("logger %q references unknown handler %q", loggerName, ref))

			continue
		}

		handlers = append(handlers, handler)
	}

	return handlers
}
