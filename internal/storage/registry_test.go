package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/andresjosehr/dollarspy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(filepath.Join(t.TempDir(), "data", "monitored-groups.json"), nil)
	require.NoError(t, err)
	return r
}

func TestNewRegistry(t *testing.T) {
	_, err := NewRegistry("  ", nil)
	require.ErrorIs(t, err, ErrEmptyString)

	dir := filepath.Join(t.TempDir(), "nested", "dir")
	r, err := NewRegistry(filepath.Join(dir, "groups.json"), nil)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(dir, "groups.json"), r.Path())
}

func TestRegistry_MissingFileIsEmpty(t *testing.T) {
	r := newTestRegistry(t)

	groups, err := r.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestRegistry_CorruptFileIsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", "{not json"},
		{"wrong shape", `{"id":"a"}`},
		{"null", "null"},
		{"empty file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry(t)
			require.NoError(t, os.WriteFile(r.Path(), []byte(tt.content), 0600))

			groups, err := r.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, groups)

			ok, err := r.Contains(context.Background(), "a")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRegistry_ReplaceAllRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	want := []model.Group{{ID: "a@g.us", Name: "G"}}
	n, err := r.ReplaceAll(ctx, want)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	data, err := os.ReadFile(r.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a@g.us","name":"G"}]`, string(data))
}

func TestRegistry_ReplaceAllDropsDuplicates(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	n, err := r.ReplaceAll(ctx, []model.Group{
		{ID: "1", Name: "A"},
		{ID: "2", Name: "B"},
		{ID: "1", Name: "A again"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Group{{ID: "1", Name: "A"}, {ID: "2", Name: "B"}}, got)
}

func TestRegistry_ReplaceAllEmpty(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	_, err := r.ReplaceAll(ctx, []model.Group{{ID: "1", Name: "A"}})
	require.NoError(t, err)

	n, err := r.ReplaceAll(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	data, err := os.ReadFile(r.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestRegistry_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	added, err := r.Add(ctx, "x", "N")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = r.Add(ctx, "x", "N")
	require.NoError(t, err)
	assert.False(t, added)

	groups, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestRegistry_AddRejectsEmptyID(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Add(context.Background(), "", "N")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestRegistry_ContainsTracksAddRemove(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	_, err := r.Add(ctx, "x@g.us", "N")
	require.NoError(t, err)

	ok, err := r.Contains(ctx, "x@g.us")
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err := r.Remove(ctx, "x@g.us")
	require.NoError(t, err)
	assert.True(t, removed)

	ok, err = r.Contains(ctx, "x@g.us")
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err = r.Remove(ctx, "x@g.us")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRegistry_RemoveKeepsOrder(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	_, err := r.ReplaceAll(ctx, []model.Group{{ID: "1"}, {ID: "2"}, {ID: "3"}})
	require.NoError(t, err)

	_, err = r.Remove(ctx, "2")
	require.NoError(t, err)

	groups, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Group{{ID: "1"}, {ID: "3"}}, groups)
}

func TestRegistry_NoTempFilesLeft(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	for i := 0; i < 3; i++ {
		_, err := r.ReplaceAll(ctx, []model.Group{{ID: "1", Name: "A"}})
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(filepath.Dir(r.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "monitored-groups.json", entries[0].Name())
}

func TestRegistry_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := r.Add(ctx, id, id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	groups, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 8)
}

func TestRegistry_NilContext(t *testing.T) {
	r := newTestRegistry(t)

	//nolint:staticcheck // Testing nil context handling
	_, err := r.List(nil)
	assert.ErrorIs(t, err, ErrNilContext)
}
