package log

import (
	"fmt"
	"io"
	"sync"
	"time"
)

type handlerIoWriter struct {
	level     int
	formatter Formatter
	writer    io.Writer
}

func NewHandlerIoWriter(level int, formatter Formatter, writer io.Writer) Handler {
	return &handlerIoWriter{
		level:     level,
		formatter: formatter,
		writer:    writer,
	}
}

func (h *handlerIoWriter) Level() int {
	return h.level
}

func (h *handlerIoWriter) Log(timestamp time.Time, level int, name string, msg string, logErr error, fields Fields) error {
	bytes, err := h.formatter(timestamp, level, name, msg, logErr, fields)
	if err != nil {
		return fmt.Errorf("can not format log message: %w", err)
	}

	if _, err = h.writer.Write(bytes); err != nil {
		return fmt.Errorf("can not write log message: %w", err)
	}

	return nil
}

func (h *handlerIoWriter) Close() error {
	if closer, ok := h.writer.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

type syncWriter struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewSyncWriter serializes writes to writers which do not lock themselves,
// like the process wide stdout and stderr streams.
func NewSyncWriter(writer io.Writer) io.Writer {
	return &syncWriter{
		writer: writer,
	}
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.writer.Write(p)
}
