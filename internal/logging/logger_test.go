package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriterLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, Config{Level: "debug", Format: FormatJSON})
	l = ComponentLogger(l, "attask")

	l.Debug().Str("path", "/optask/search").Msg("request")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "attask", event["component"])
	assert.Equal(t, "/optask/search", event["path"])
	assert.Equal(t, "debug", event["level"])
}

func TestNewWriterLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantOut bool
	}{
		{"info drops debug", "info", false},
		{"debug keeps debug", "debug", true},
		{"invalid falls back to info", "loud", false},
		{"empty falls back to info", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWriterLogger(&buf, Config{Level: tt.level, Format: FormatJSON})
			l.Debug().Msg("hidden?")
			assert.Equal(t, tt.wantOut, buf.Len() > 0)
		})
	}
}

func TestTraceHook(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, Config{Format: FormatJSON})

	ctx := ContextWithTraceID(context.Background(), "01HTRACE")
	l.Info().Ctx(ctx).Msg("with trace")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "01HTRACE", event[TraceIDField])
}

func TestGetOrGenerateTraceID(t *testing.T) {
	ctx := context.Background()
	id := GetOrGenerateTraceID(ctx)
	assert.Len(t, id, 26)

	ctx = ContextWithTraceID(ctx, id)
	assert.Equal(t, id, GetOrGenerateTraceID(ctx))
	assert.NotEqual(t, id, GenerateTraceID())
}

func TestFromContext(t *testing.T) {
	t.Run("no logger", func(t *testing.T) {
		l := FromContext(context.Background())
		require.NotNil(t, l)
		assert.Equal(t, zerolog.Disabled, l.GetLevel())
	})

	t.Run("stored logger", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewWriterLogger(&buf, Config{Format: FormatJSON})
		ctx := l.WithContext(context.Background())

		FromContext(ctx).Info().Msg("hello")
		assert.Contains(t, buf.String(), "hello")
	})
}

func TestNewLoggerWithPath(t *testing.T) {
	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "archive.log")
		res := NewLoggerWithPath(Config{Output: OutputFile, File: path, Format: FormatJSON})
		t.Cleanup(func() { _ = res.Close() })

		assert.True(t, res.UsingFile)
		assert.Equal(t, path, res.FilePath)
		assert.False(t, res.FallbackUsed)
	})

	t.Run("unwritable file falls back", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "dir", "archive.log")
		res := NewLoggerWithPath(Config{Output: OutputFile, File: path})

		assert.False(t, res.UsingFile)
		assert.True(t, res.FallbackUsed)
		assert.NotEmpty(t, res.FallbackReason)
		assert.NoError(t, res.Close())
	})
}
