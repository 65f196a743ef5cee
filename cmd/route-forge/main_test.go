package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-forge/internal/ledger"
	"route-forge/internal/model"
)

func specsFixture() []*model.RouteSpecification {
	return []*model.RouteSpecification{
		{Index: 1, RouteDetails: model.RouteDetails{Path: "/users", Method: "GET"}},
		{Index: 3, RouteDetails: model.RouteDetails{Path: "/users", Method: "POST"}},
		{Index: 4, RouteDetails: model.RouteDetails{Path: "/orders", Method: "GET"}},
	}
}

func TestSplitFormats(t *testing.T) {
	fallback := []string{"excel", "json"}

	assert.Equal(t, fallback, splitFormats("", fallback))
	assert.Equal(t, fallback, splitFormats(" , ", fallback))
	assert.Equal(t, []string{"html", "openapi"}, splitFormats("html, openapi,", fallback))
}

func TestFilterByIndex(t *testing.T) {
	got := filterByIndex(specsFixture(), []int{4, 1, 7})

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, 4, got[1].Index)
}

func TestSelectEntries(t *testing.T) {
	ctx := context.Background()
	all := specsFixture()

	t.Run("all by default", func(t *testing.T) {
		got, err := selectEntries(ctx, all, &generateFlags{}, nil, "specs.yaml")
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("single entry", func(t *testing.T) {
		got, err := selectEntries(ctx, all, &generateFlags{entry: 3}, nil, "specs.yaml")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "POST", got[0].Method())
	})

	t.Run("rejected entry", func(t *testing.T) {
		_, err := selectEntries(ctx, all, &generateFlags{entry: 2}, nil, "specs.yaml")
		assert.ErrorContains(t, err, "entry 2")
	})

	t.Run("only failed needs ledger", func(t *testing.T) {
		_, err := selectEntries(ctx, all, &generateFlags{onlyFailed: true}, nil, "specs.yaml")
		assert.ErrorContains(t, err, "ledger")
	})

	t.Run("only failed from last run", func(t *testing.T) {
		lg, err := ledger.Open(":memory:")
		require.NoError(t, err)
		defer lg.Close()

		require.NoError(t, lg.StartRun(ctx, "run-1", "specs.yaml"))
		require.NoError(t, lg.Record(ctx, ledger.StageRun{RunID: "run-1", EntryIndex: 1, Stage: model.StageRoute, Status: ledger.StatusOK}))
		require.NoError(t, lg.Record(ctx, ledger.StageRun{RunID: "run-1", EntryIndex: 4, Stage: model.StageRoute, Status: ledger.StatusFailed, Error: "timeout"}))

		got, err := selectEntries(ctx, all, &generateFlags{onlyFailed: true}, lg, "specs.yaml")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 4, got[0].Index)
	})
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"generate", "validate", "review", "history"} {
		assert.True(t, names[want], "missing command %s", want)
	}

	for _, flag := range []string{"config", "verbose", "output", "specs", "no-progress"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestGenerateRejectsConflictingSelection(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"generate", "--entry", "1", "--only-failed"})

	err := root.Execute()
	assert.Error(t, err)
}
