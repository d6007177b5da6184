package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/taskmaster-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		want  slog.Level
		valid bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"Warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := ParseLevel(tt.name)
			assert.Equal(t, tt.want, level)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestSetupWithWriter(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &TestLogBuffer{}
	l := SetupWithWriter("warn", buf)
	require.NotNil(t, l)

	l.Info("dropped")
	l.Warn("kept", "key", "value")
	slog.Error("via default")

	entries := buf.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "kept", entries[0]["msg"])
	assert.Equal(t, "value", entries[0]["key"])
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "via default", entries[1]["msg"])
}

func TestSetup(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	l, err := Setup(config.ServerConfig{LogLevel: "debug"})
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.True(t, l.Enabled(context.Background(), slog.LevelDebug))
}

func TestContextLogger(t *testing.T) {
	l, buf := NewTestLogger()
	fallback, _ := NewTestLogger()

	t.Run("empty context uses fallback", func(t *testing.T) {
		assert.Same(t, fallback, FromContextOrDefault(context.Background(), fallback))
	})

	t.Run("nil fallback uses default", func(t *testing.T) {
		assert.Same(t, slog.Default(), FromContextOrDefault(context.Background(), nil))
	})

	t.Run("stored logger wins", func(t *testing.T) {
		ctx := WithLogger(context.Background(), l.With("trace_id", "abc"))
		FromContext(ctx).Info("hello")

		entries := buf.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "abc", entries[0]["trace_id"])
	})
}
