package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/attask-archive/internal/attask"
	"github.com/rshade/attask-archive/internal/cli"
)

func TestMainComponents(t *testing.T) {
	t.Run("run function exists", func(_ *testing.T) {
		_ = run
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version)
		assert.NotNil(t, root)
		assert.NotEmpty(t, root.Use)
		assert.Equal(t, "dev", root.Version)
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error returns 0", err: nil, want: 0},
		{name: "cancelled returns 0", err: cli.ErrCancelled, want: 0},
		{name: "wrapped cancel returns 0", err: fmt.Errorf("move: %w", cli.ErrCancelled), want: 0},
		{name: "generic error returns 1", err: errors.New("boom"), want: 1},
		{
			name: "api error returns 1",
			err:  &attask.APIError{StatusCode: 500, Path: "/optask/search", Err: errors.New("500 Internal Server Error")},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, errors.New("api config: api key is required"))
	assert.Equal(t, "Error: api config: api key is required\n", buf.String())
}
