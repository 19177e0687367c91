package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOutput(t *testing.T) {
	data := []map[string]any{
		{"ID": "a1", "count": json.Number("42"), "ratio": json.Number("0.5"), "tags": []any{"x", json.Number("7")}},
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, "JSON", data))
		assert.JSONEq(t, `[{"ID":"a1","count":42,"ratio":0.5,"tags":["x",7]}]`, buf.String())
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, "yaml", data))
		out := buf.String()
		assert.Contains(t, out, "ID: a1")
		assert.Contains(t, out, "count: 42")
		assert.Contains(t, out, "ratio: 0.5")
		assert.Contains(t, out, "- 7")
		assert.NotContains(t, out, `"42"`)
	})

	t.Run("unknown", func(t *testing.T) {
		err := writeOutput(&bytes.Buffer{}, "xml", data)
		assert.ErrorIs(t, err, ErrInvalidOutputFormat)
	})
}

func TestValidateOutputFormat(t *testing.T) {
	assert.NoError(t, validateOutputFormat("json"))
	assert.NoError(t, validateOutputFormat("YAML"))
	assert.ErrorIs(t, validateOutputFormat("table"), ErrInvalidOutputFormat)
}
