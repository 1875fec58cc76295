package platform

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestNewLogger(t *testing.T) {
	t.Run("Writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger, closer := NewLogger(&buf, "", slog.LevelInfo)
		defer closer.Close()

		logger.Debug("hidden")
		logger.Info("saved", "id", "297aacc")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=saved id=297aacc")
	})

	t.Run("File", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "logbook.log")
		logger, closer := NewLogger(&buf, path, slog.LevelDebug)

		logger.Debug("to file")
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "to file")
		assert.Empty(t, buf.String())
	})
}
