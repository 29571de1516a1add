package storage_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WebSims/jstrace/pkg/ast"
	"github.com/WebSims/jstrace/pkg/interpreter"
	"github.com/WebSims/jstrace/pkg/storage"
	"github.com/WebSims/jstrace/pkg/trace"
)

func openTestStore(t *testing.T) *storage.TraceStore {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "jstrace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleTrace(t *testing.T) *trace.Trace {
	t.Helper()
	tr, err := interpreter.New(interpreter.DefaultOptions()).Run(ast.Prog(
		ast.Decl(ast.DeclarationVar, "x", ast.Num(1)),
		ast.ConsoleLog(ast.ID("x")),
	))
	require.NoError(t, err)
	return tr
}

func TestSaveAndLoadTrace(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	tr := sampleTrace(t)

	id, err := store.SaveTrace(ctx, "sample.json", tr)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	loaded, err := store.LoadTrace(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tr.Outcome, loaded.Outcome)
	assert.Len(t, loaded.Steps, len(tr.Steps))
	assert.Equal(t, tr.Final().Console[0].Text, loaded.Final().Console[0].Text)
	assert.Nil(t, loaded.ErrorValue)
}

func TestSavePreservesErrorValue(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tr, err := interpreter.New(interpreter.DefaultOptions()).Run(ast.Prog(
		ast.Throw(ast.Str("boom")),
	))
	require.NoError(t, err)
	require.Equal(t, trace.OutcomeThrew, tr.Outcome)

	id, err := store.SaveTrace(ctx, "throwing.json", tr)
	require.NoError(t, err)

	loaded, err := store.LoadTrace(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, loaded.ErrorValue)
	assert.Equal(t, "boom", loaded.ErrorValue.Value)
}

func TestLoadStepsJSONRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	tr := sampleTrace(t)

	want, err := json.Marshal(tr.Steps)
	require.NoError(t, err)

	id, err := store.SaveTrace(ctx, "sample.json", tr)
	require.NoError(t, err)

	got, err := store.LoadStepsJSON(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, want, got, "stored steps must round-trip byte for byte")
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	tr := sampleTrace(t)

	first, err := store.SaveTrace(ctx, "first.json", tr)
	require.NoError(t, err)
	second, err := store.SaveTrace(ctx, "second.json", tr)
	require.NoError(t, err)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	ids := []string{runs[0].ID, runs[1].ID}
	assert.Contains(t, ids, first)
	assert.Contains(t, ids, second)
	assert.False(t, runs[0].CreatedAt.Before(runs[1].CreatedAt))
	assert.Equal(t, len(tr.Steps), runs[0].StepCount)
	assert.Equal(t, trace.OutcomeCompleted, runs[0].Outcome)

	limited, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDeleteRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.SaveTrace(ctx, "sample.json", sampleTrace(t))
	require.NoError(t, err)

	require.NoError(t, store.DeleteRun(ctx, id))

	_, err = store.LoadTrace(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.DeleteRun(ctx, id), storage.ErrNotFound)
}

func TestLoadMissingRun(t *testing.T) {
	store := openTestStore(t)
	_, err := store.LoadTrace(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.LoadStepsJSON(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "jstrace.db")
	store, err := storage.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening an existing database must not re-run migrations.
	store, err = storage.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
