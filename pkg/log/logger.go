package log

import (
	"context"
	"fmt"
	"os"

	"github.com/tcpkit/tcpkit/pkg/clock"
)

// Logger is the main interface for logging. It supports the standard log
// levels and derives loggers with additional structured fields. Fields stored
// in the context via AppendContextFields are added to every record.
type Logger interface {
	Trace(ctx context.Context, format string, args ...any)
	Debug(ctx context.Context, format string, args ...any)
	Info(ctx context.Context, format string, args ...any)
	Warn(ctx context.Context, format string, args ...any)
	Error(ctx context.Context, format string, args ...any)

	WithFields(fields Fields) Logger
}

// node is one routing rule in the logger hierarchy: a minimum severity, an
// ordered set of handlers and the link to the parent rule records propagate to.
type node struct {
	name      string
	level     int
	handlers  []Handler
	propagate bool
	parent    *node
}

var _ Logger = &logger{}

type logger struct {
	clock  clock.Clock
	node   *node
	fields Fields
}

func newLogger(clock clock.Clock, node *node) *logger {
	return &logger{
		clock:  clock,
		node:   node,
		fields: Fields{},
	}
}

// NewLoggerWithHandlers creates a standalone logger outside of any
// configured hierarchy, mostly useful for tests and simple tools.
func NewLoggerWithHandlers(clock clock.Clock, name string, level int, handlers ...Handler) Logger {
	return newLogger(clock, &node{
		name:     name,
		level:    level,
		handlers: handlers,
	})
}

func (l *logger) Trace(ctx context.Context, format string, args ...any) {
	l.log(ctx, PriorityTrace, format, args, nil)
}

func (l *logger) Debug(ctx context.Context, format string, args ...any) {
	l.log(ctx, PriorityDebug, format, args, nil)
}

func (l *logger) Info(ctx context.Context, format string, args ...any) {
	l.log(ctx, PriorityInfo, format, args, nil)
}

func (l *logger) Warn(ctx context.Context, format string, args ...any) {
	l.log(ctx, PriorityWarn, format, args, nil)
}

func (l *logger) Error(ctx context.Context, format string, args ...any) {
	err := fmt.Errorf(format, args...)

	l.log(ctx, PriorityError, "%s", []any{err.Error()}, err)
}

func (l *logger) WithFields(fields Fields) Logger {
	return &logger{
		clock:  l.clock,
		node:   l.node,
		fields: mergeFields(l.fields, fields),
	}
}

// log drops the record unless it passes the effective level of the
// originating logger. Afterwards the record is offered to the handlers of
// the logger and of every ancestor while propagation is enabled; ancestor
// levels do not filter again, but every handler filters by its own level.
func (l *logger) log(ctx context.Context, level int, format string, args []any, loggedErr error) {
	if level < l.node.level {
		return
	}

	timestamp := l.clock.Now()

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	fields := l.fields
	if ctxFields := ContextFieldsResolver(ctx); len(ctxFields) > 0 {
		fields = mergeFields(ctxFields, l.fields)
	}

	for n := l.node; n != nil; n = n.parent {
		for _, handler := range n.handlers {
			if handler.Level() > level {
				continue
			}

			if err := handler.Log(timestamp, level, l.node.name, msg, loggedErr, fields); err != nil {
				l.err(err)
			}
		}

		if !n.propagate {
			break
		}
	}
}

func (l *logger) err(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "failed to write to log, %s\n", err)
}
