package log

import (
	"os"

	"github.com/tcpkit/tcpkit/pkg/clock"
)

func NewCliLogger() Logger {
	return NewLoggerWithHandlers(clock.Provider, "main", PriorityInfo, NewCliHandler())
}

func NewCliHandler() Handler {
	return NewHandlerIoWriter(PriorityInfo, FormatterConsole, NewSyncWriter(os.Stdout))
}
