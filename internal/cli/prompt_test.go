package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  PromptResult
	}{
		{name: "y", input: "y\n", want: PromptResult{Accepted: true}},
		{name: "YES", input: "YES\n", want: PromptResult{Accepted: true}},
		{name: "padded", input: "  yes  \n", want: PromptResult{Accepted: true}},
		{name: "no", input: "n\n", want: PromptResult{}},
		{name: "enter defaults to no", input: "\n", want: PromptResult{}},
		{name: "other text", input: "sure\n", want: PromptResult{}},
		{name: "EOF", input: "", want: PromptResult{}},
		{name: "unterminated yes", input: "y", want: PromptResult{Accepted: true}},
	}

	withTTY(t, true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := Confirm(&out, strings.NewReader(tt.input), "Proceed?")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Proceed? [y/N] ", out.String())
		})
	}
}

func TestConfirm_ReadError(t *testing.T) {
	withTTY(t, true)
	got := Confirm(&bytes.Buffer{}, failingReader{}, "Proceed?")
	assert.Equal(t, PromptResult{Cancelled: true}, got)
}

func TestConfirm_NonInteractive(t *testing.T) {
	withTTY(t, false)
	var out bytes.Buffer
	got := Confirm(&out, strings.NewReader("y\n"), "Proceed?")
	assert.Equal(t, PromptResult{NonInteractive: true}, got)
	assert.Empty(t, out.String(), "no prompt is written")
}

func TestConfirm_SharedReader(t *testing.T) {
	withTTY(t, true)
	in := bufio.NewReader(strings.NewReader("y\nn\ny\n"))
	var out bytes.Buffer

	assert.True(t, Confirm(&out, in, "one").Accepted)
	assert.False(t, Confirm(&out, in, "two").Accepted)
	assert.True(t, Confirm(&out, in, "three").Accepted)
}

func TestPromptSecret(t *testing.T) {
	t.Run("non-interactive", func(t *testing.T) {
		withTTY(t, false)
		var out bytes.Buffer
		_, err := PromptSecret(&out, "Password")
		assert.ErrorIs(t, err, ErrNotInteractive)
		assert.Empty(t, out.String())
	})

	t.Run("read error", func(t *testing.T) {
		withTTY(t, true)
		prev := readSecret
		readSecret = func() ([]byte, error) { return nil, errors.New("tty gone") }
		t.Cleanup(func() { readSecret = prev })

		var out bytes.Buffer
		_, err := PromptSecret(&out, "Password")
		assert.ErrorContains(t, err, "reading password")
		assert.Equal(t, "Password: \n", out.String())
	})
}
