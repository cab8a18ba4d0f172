package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/tcpkit/tcpkit/pkg/cfg"
	"golang.org/x/text/encoding"
)

func init() {
	AddHandlerFactory("rotating_file", handlerRotatingFileFactory)
}

type HandlerRotatingFileSettings struct {
	Level        string `cfg:"level"          default:"info"`
	Formatter    string `cfg:"formatter"      default:"json"`
	Path         string `cfg:"path"           validate:"required"`
	Mode         string `cfg:"mode"           default:"append" validate:"oneof=append truncate"`
	MaxSizeBytes int64  `cfg:"max_size_bytes" default:"0"      validate:"gte=0"`
	BackupCount  int    `cfg:"backup_count"   default:"0"      validate:"gte=0"`
	Encoding     string `cfg:"encoding"`
}

func handlerRotatingFileFactory(config cfg.Config, formatters Formatters, name string) (Handler, error) {
	settings := &HandlerRotatingFileSettings{}
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

	writer, err := NewRotatingFileWriter(settings.Path, settings.Mode, settings.MaxSizeBytes, settings.BackupCount, encoder)
	if err != nil {
		return nil, err
	}

	return NewHandlerIoWriter(level, formatter, writer), nil
}

type rotatingFileWriter struct {
	mu           sync.Mutex
	file         *os.File
	size         int64
	path         string
	maxSizeBytes int64
	backupCount  int
	encoder      *encoding.Encoder
}

// NewRotatingFileWriter writes to path and rotates the file once a write
// would push it past maxSizeBytes: backup i gets renamed to backup i+1 up to
// backupCount, the live file becomes backup 1 and is reopened empty. With a
// backupCount of 0 the live file is truncated in place instead.
// A maxSizeBytes of 0 disables rotation entirely.
func NewRotatingFileWriter(path string, mode string, maxSizeBytes int64, backupCount int, encoder *encoding.Encoder) (io.WriteCloser, error) {
	file, err := openLogFile(path, mode)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("can not stat log file %s: %w", path, err)
	}

	return &rotatingFileWriter{
		file:         file,
		size:         info.Size(),
		path:         path,
		maxSizeBytes: maxSizeBytes,
		backupCount:  backupCount,
		encoder:      encoder,
	}, nil
}

func (w *rotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := p
	if w.encoder != nil {
		var err error
		if out, err = w.encoder.Bytes(p); err != nil {
			return 0, fmt.Errorf("can not encode log message: %w", err)
		}
	}

	if w.shouldRotate(int64(len(out))) {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(out)
	w.size += int64(n)

	if err != nil {
		return 0, err
	}

	return len(p), nil
}

func (w *rotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

func (w *rotatingFileWriter) shouldRotate(incoming int64) bool {
	return w.maxSizeBytes > 0 && w.size > 0 && w.size+incoming > w.maxSizeBytes
}

func (w *rotatingFileWriter) rotate() error {
	// a close error does not stop the rotation, the file descriptor is
	// gone either way and the rename works on the path
	closeErr := w.file.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("can not close log file %s for rotation: %w", w.path, closeErr)
	}

	if w.backupCount > 0 {
		_ = os.Remove(w.backupPath(w.backupCount))

		for i := w.backupCount - 1; i >= 1; i-- {
			src := w.backupPath(i)
			if _, err := os.Stat(src); err != nil {
				continue
			}

			if err := os.Rename(src, w.backupPath(i+1)); err != nil {
				return w.recoverLive(multierror.Append(closeErr, fmt.Errorf("can not shift log backup %s: %w", src, err)).ErrorOrNil())
			}
		}

		if err := os.Rename(w.path, w.backupPath(1)); err != nil {
			return w.recoverLive(multierror.Append(closeErr, fmt.Errorf("can not rotate log file %s: %w", w.path, err)).ErrorOrNil())
		}
	}

	file, err := openLogFile(w.path, FileModeTruncate)
	if err != nil {
		return multierror.Append(closeErr, err).ErrorOrNil()
	}

	w.file = file
	w.size = 0

	return closeErr
}

// recoverLive reopens the live file in append mode after a failed rotation so
// the writer stays usable. The rotation error is returned either way.
func (w *rotatingFileWriter) recoverLive(cause error) error {
	file, err := openLogFile(w.path, FileModeAppend)
	if err != nil {
		return multierror.Append(cause, err).ErrorOrNil()
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()

		return multierror.Append(cause, fmt.Errorf("can not stat log file %s: %w", w.path, err)).ErrorOrNil()
	}

	w.file = file
	w.size = info.Size()

	return cause
}

func (w *rotatingFileWriter) backupPath(i int) string {
	return fmt.Sprintf("%s.%d", w.path, i)
}
