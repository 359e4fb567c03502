package logger

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel("warn"))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestOutput(t *testing.T) {
	require.Equal(t, os.Stdout, output("  "))

	w, ok := output("/tmp/powerdash.log").(*lumberjack.Logger)
	require.True(t, ok)
	require.Equal(t, "/tmp/powerdash.log", w.Filename)
	require.True(t, w.Compress)
}
