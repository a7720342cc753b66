package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Lines(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelDebug)

	logger.Info("master branch detected")
	logger.Debug("")
	logger.Debug("pr title             : '[patch] fix'")
	logger.Error("")
	logger.Error("Aborting.")

	expected := "[INFO]  master branch detected\n" +
		"[DEBUG]\n" +
		"[DEBUG]  pr title             : '[patch] fix'\n" +
		"[ERROR]\n" +
		"[ERROR]  Aborting.\n"
	assert.Equal(t, expected, buf.String())
}

func TestHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, nil)

	logger.Debug("hidden")
	logger.Warn("shown")

	assert.Equal(t, "[WARN]  shown\n", buf.String())
}

func TestHandler_Attrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelDebug).With("manifest", "pyproject.toml")

	logger.WithGroup("pr").Info("loaded", "number", 123, "title", "[patch] fix", slog.Group("head", "sha", "abc"))

	assert.Equal(t, "[INFO]  loaded manifest=pyproject.toml pr.number=123 pr.title=\"[patch] fix\" pr.head.sha=abc\n", buf.String())
}

func TestTag(t *testing.T) {
	assert.Equal(t, "[DEBUG]", Tag(slog.LevelDebug))
	assert.Equal(t, "[INFO]", Tag(slog.LevelInfo))
	assert.Equal(t, "[WARN]", Tag(slog.LevelWarn))
	assert.Equal(t, "[ERROR]", Tag(slog.LevelError))
	assert.Equal(t, "[ERROR]", Tag(slog.LevelError+4))
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
