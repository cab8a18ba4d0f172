package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

const (
	FileModeAppend   = "append"
	FileModeTruncate = "truncate"
)

func openLogFile(path string, mode string) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY

	switch mode {
	case FileModeAppend:
		flags |= os.O_APPEND
	case FileModeTruncate:
		flags |= os.O_TRUNC
	default:
		return nil, fmt.Errorf("there is no file mode %q", mode)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("can not create log directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("can not open file %s to write logs to: %w", path, err)
	}

	return file, nil
}

// resolveEncoder maps an IANA charset name to an encoder transforming UTF-8
// log lines on their way to the file. UTF-8 itself needs no transformation.
func resolveEncoder(name string) (*encoding.Encoder, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("there is no charset encoding %q", name)
	}

	return enc.NewEncoder(), nil
}
