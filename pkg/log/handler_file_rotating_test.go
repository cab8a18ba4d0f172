package log_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tcpkit/tcpkit/pkg/log"
)

func writeLines(t *testing.T, w io.Writer, lines ...string) {
	t.Helper()

	for _, line := range lines {
		_, err := w.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}
}

func TestRotatingFileWriterNoRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	writer, err := log.NewRotatingFileWriter(path, log.FileModeAppend, 0, 0, nil)
	require.NoError(t, err)
	defer writer.Close()

	writeLines(t, writer, strings.Repeat("x", 100), strings.Repeat("y", 100))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, splitNonEmptyLines(string(content)), 2)

	_, err = os.Stat(path + ".1")
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingFileWriterRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	writer, err := log.NewRotatingFileWriter(path, log.FileModeAppend, 32, 2, nil)
	require.NoError(t, err)
	defer writer.Close()

	first := strings.Repeat("1", 20)
	second := strings.Repeat("2", 20)
	third := strings.Repeat("3", 20)

	writeLines(t, writer, first, second, third)

	// every write overflows the previous file, so each line ends up in its own generation
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, third+"\n", string(content))

	backup1, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, second+"\n", string(backup1))

	backup2, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	assert.Equal(t, first+"\n", string(backup2))
}

func TestRotatingFileWriterDropsOldestBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	writer, err := log.NewRotatingFileWriter(path, log.FileModeAppend, 8, 1, nil)
	require.NoError(t, err)
	defer writer.Close()

	writeLines(t, writer, "aaaaaaa", "bbbbbbb", "ccccccc")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ccccccc\n", string(content))

	backup1, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbb\n", string(backup1))

	_, err = os.Stat(path + ".2")
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingFileWriterTruncatesWithoutBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	writer, err := log.NewRotatingFileWriter(path, log.FileModeAppend, 8, 0, nil)
	require.NoError(t, err)
	defer writer.Close()

	writeLines(t, writer, "aaaaaaa", "bbbbbbb")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbb\n", string(content))

	_, err = os.Stat(path + ".1")
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingFileWriterRecoversFromFailedRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	writer, err := log.NewRotatingFileWriter(path, log.FileModeTruncate, 16, 1, nil)
	require.NoError(t, err)
	defer writer.Close()

	filler := strings.Repeat("f", 15)
	writeLines(t, writer, filler)

	// a non-empty directory in the backup slot makes the rename fail
	blocker := path + ".1"
	require.NoError(t, os.Mkdir(blocker, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocker, "keep"), []byte("x"), 0o644))

	_, err = writer.Write([]byte("overflow\n"))
	require.Error(t, err)

	// once the slot is free again the writer rotates and keeps going
	require.NoError(t, os.RemoveAll(blocker))

	writeLines(t, writer, "written")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "written\n", string(content))

	backup1, err := os.ReadFile(blocker)
	require.NoError(t, err)
	assert.Equal(t, filler+"\n", string(backup1))
}

func TestRotatingFileWriterAppendPicksUpExistingSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("ooooooo\n"), 0o644))

	writer, err := log.NewRotatingFileWriter(path, log.FileModeAppend, 8, 1, nil)
	require.NoError(t, err)
	defer writer.Close()

	writeLines(t, writer, "nnnnnnn")

	backup1, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, "ooooooo\n", string(backup1))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "nnnnnnn\n", string(content))
}
