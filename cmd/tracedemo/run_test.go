package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace"
	"github.com/randalmurphal/eventtrace/pkg/eventtrace/logsink"
)

func testRunOptions() runOptions {
	return runOptions{events: 30, label: "demo", timeout: 5 * time.Second}
}

func TestEmitAndWait(t *testing.T) {
	var logs bytes.Buffer
	opts := testRunOptions()

	var out bytes.Buffer
	require.NoError(t, runDemo(context.Background(), opts, &out, &logs))

	assert.Contains(t, out.String(), "emitted:   30")
	assert.Contains(t, out.String(), "delivered: 30 (1 failed jobs)")
	assert.Contains(t, out.String(), "lost:      0")
	assert.Contains(t, logs.String(), "demo failure")
}

func TestEmitAndWait_Async(t *testing.T) {
	sys := eventtrace.New(eventtrace.WithSyncLogging(false), eventtrace.WithSink(logsink.Discard))
	summary, err := emitAndWait(context.Background(), sys, testRunOptions())
	require.NoError(t, err)

	assert.Equal(t, 30, summary.Emitted)
	assert.Equal(t, int64(30), summary.Delivered)
	assert.Equal(t, int64(1), summary.Failed)
	assert.Len(t, sys.Registrations(), 2, "listener and log consumer")
}

func TestEmitAndWait_Filter(t *testing.T) {
	opts := testRunOptions()
	opts.filter = "other.*"

	sys := eventtrace.New(eventtrace.WithSink(logsink.Discard))
	summary, err := emitAndWait(context.Background(), sys, opts)
	require.NoError(t, err)
	assert.Equal(t, 30, summary.Emitted)
	assert.Zero(t, summary.Delivered)
}

func TestRunDemo_Config(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
queue_capacity = 5

[log]
level = "error"
`), 0o600))

	opts := testRunOptions()
	opts.configPath = path

	var out, logs bytes.Buffer
	require.NoError(t, runDemo(context.Background(), opts, &out, &logs))
	assert.Contains(t, out.String(), "emitted:   30")
	assert.NotContains(t, logs.String(), "demo failure", "info lines are below the configured level")
}

func TestRunDemo_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queue_capacity: -1\n"), 0o600))

	opts := testRunOptions()
	opts.configPath = path

	err := runDemo(context.Background(), opts, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue_capacity")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "tracedemo version dev")
}
