package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledIsNoop(t *testing.T) {
	dir := t.TempDir()
	tel, err := New(false, dir)
	require.NoError(t, err)

	ctx, span := tel.StartEntry(context.Background(), 1, "GET", "/users")
	_, stage := tel.StartStage(ctx, "route")
	tel.CallFinished(ctx, "route", "primary", nil)
	tel.ArtifactWritten(ctx, "route")
	End(stage, errors.New("boom"))
	End(span, nil)

	require.NoError(t, tel.Shutdown(context.Background()))
	_, err = os.Stat(filepath.Join(dir, TracesFile))
	assert.True(t, os.IsNotExist(err))
}

func TestEnabledWritesFiles(t *testing.T) {
	dir := t.TempDir()
	tel, err := New(true, dir)
	require.NoError(t, err)

	ctx, entry := tel.StartEntry(context.Background(), 2, "POST", "/orders")
	stageCtx, stage := tel.StartStage(ctx, "controller")
	tel.CallFinished(stageCtx, "controller", "primary", errors.New("status 503"))
	tel.CallFinished(stageCtx, "controller", "primary", nil)
	tel.ArtifactWritten(stageCtx, "controller")
	End(stage, errors.New("empty reply"))
	End(entry, nil)

	require.NoError(t, tel.Shutdown(context.Background()))

	traces, err := os.ReadFile(filepath.Join(dir, TracesFile))
	require.NoError(t, err)
	assert.Contains(t, string(traces), "pipeline.entry")
	assert.Contains(t, string(traces), "pipeline.stage")
	assert.Contains(t, string(traces), "/orders")
	assert.Contains(t, string(traces), "empty reply")

	metrics, err := os.ReadFile(filepath.Join(dir, MetricsFile))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "route_forge.generation.calls")
	assert.Contains(t, string(metrics), "route_forge.generation.failures")
	assert.Contains(t, string(metrics), "route_forge.artifacts.written")
}

func TestNewFailsOnMissingDirectory(t *testing.T) {
	_, err := New(true, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
