package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSelection(t *testing.T) {
	assert.Equal(t, []string{"1", "3", "5"}, splitSelection("1 3 5"))
	assert.Equal(t, []string{"1", "3", "5"}, splitSelection("1,3,5"))
	assert.Equal(t, []string{"1", "3"}, splitSelection(" 1,  3\n"))
	assert.Empty(t, splitSelection("\n"))
}

func TestChatLoopReturnsOnCancel(t *testing.T) {
	// Stdin never produces a line; cancellation alone must end the loop.
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	cmd := newRootCmd()
	cmd.SetIn(pr)
	cmd.SetOut(&bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- chatLoop(ctx, cmd, nil) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("chat loop did not return after cancellation")
	}
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, slogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, slogLevel("warn"))
	assert.Equal(t, slog.LevelError, slogLevel("error"))
	assert.Equal(t, slog.LevelInfo, slogLevel("info"))
	assert.Equal(t, slog.LevelInfo, slogLevel("anything else"))
}
