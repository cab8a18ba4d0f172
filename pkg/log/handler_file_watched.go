package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/tcpkit/tcpkit/pkg/cfg"
	"golang.org/x/text/encoding"
)

func init() {
	AddHandlerFactory("watched_file", handlerWatchedFileFactory)
}

type HandlerWatchedFileSettings struct {
	Level     string `cfg:"level"     default:"info"`
	Formatter string `cfg:"formatter" default:"json"`
	Path      string `cfg:"path"      validate:"required"`
	Mode      string `cfg:"mode"      default:"append" validate:"oneof=append truncate"`
	Encoding  string `cfg:"encoding"`
}

func handlerWatchedFileFactory(config cfg.Config, formatters Formatters, name string) (Handler, error) {
	settings := &HandlerWatchedFileSettings{}
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

	encoder, err := resolveEncoder(settings.Encoding)
	if err != nil {
		return nil, err
	}

	writer, err := NewWatchedFileWriter(settings.Path, settings.Mode, encoder)
	if err != nil {
		return nil, err
	}

	return NewHandlerIoWriter(level, formatter, writer), nil
}

type watchedFileWriter struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	mode    string
	encoder *encoding.Encoder
	watcher *fsnotify.Watcher
	stale   atomic.Bool
}

// NewWatchedFileWriter writes to path and reopens the file once it got
// removed or renamed underneath the process, so external log rotation is
// honored. The file is reopened with the configured mode.
func NewWatchedFileWriter(path string, mode string, encoder *encoding.Encoder) (io.WriteCloser, error) {
	file, err := openLogFile(path, mode)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("can not create watcher for log file %s: %w", path, err)
	}

	if err = watcher.Add(path); err != nil {
		return nil, fmt.Errorf("can not watch log file %s: %w", path, err)
	}

	writer := &watchedFileWriter{
		file:    file,
		path:    path,
		mode:    mode,
		encoder: encoder,
		watcher: watcher,
	}

	go writer.watch()

	return writer, nil
}

func (w *watchedFileWriter) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.stale.Store(true)
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *watchedFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stale.Swap(false) {
		if err := w.reopen(); err != nil {
			// retry on the next write instead of pinning the old file
			w.stale.Store(true)

			return 0, err
		}
	}

	out := p
	if w.encoder != nil {
		var err error
		if out, err = w.encoder.Bytes(p); err != nil {
			return 0, fmt.Errorf("can not encode log message: %w", err)
		}
	}

	if _, err := w.file.Write(out); err != nil {
		return 0, err
	}

	return len(p), nil
}

func (w *watchedFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.watcher.Close(); err != nil {
		return err
	}

	return w.file.Close()
}

func (w *watchedFileWriter) reopen() error {
	_ = w.file.Close()

	file, err := openLogFile(w.path, w.mode)
	if err != nil {
		return err
	}

	w.file = file

	// the watch on the old inode is gone together with the file
	if err = w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("can not watch log file %s: %w", w.path, err)
	}

	return nil
}
