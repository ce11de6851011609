package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(filepath.Join(t.TempDir(), "reports"))
	require.NoError(t, err)

	require.NoError(t, store.Store(ctx, "report_2024-01-15.json", []byte(`{"a":1}`)))
	require.NoError(t, store.Store(ctx, "report_2024-01-14.json", []byte(`{"a":2}`)))
	require.NoError(t, store.Store(ctx, "other.json", []byte(`{}`)))

	data, err := store.Retrieve(ctx, "report_2024-01-15.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	names, err := store.List(ctx, "report_")
	require.NoError(t, err)
	assert.Equal(t, []string{"report_2024-01-14.json", "report_2024-01-15.json"}, names)

	require.NoError(t, store.Delete(ctx, "report_2024-01-14.json"))
	names, err = store.List(ctx, "report_")
	require.NoError(t, err)
	assert.Equal(t, []string{"report_2024-01-15.json"}, names)

	_, err = store.Retrieve(ctx, "missing.json")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStorage_RejectsPathTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../escape.json", "nested/report.json", "..", ""} {
		assert.Error(t, store.Store(ctx, name, []byte("x")), name)
	}
}

func TestNewAzureStorage_RequiresAccount(t *testing.T) {
	_, err := NewAzureStorage(context.Background(), "", "reports")
	assert.Error(t, err)
}
