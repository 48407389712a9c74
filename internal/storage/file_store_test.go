package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile", "state.json")
	ctx := context.Background()

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SetMany(ctx, map[string]string{
		KeyToken:    "tok",
		KeyUsername: "alice",
		KeyIsAdmin:  "true",
	}))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	v, ok, err := reopened.Get(ctx, KeyUsername)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", v)
}

func TestFileStore_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeyCart, "[]"))
	require.NoError(t, s.Set(ctx, KeyTheme, "dark"))
	require.NoError(t, s.Remove(ctx, KeyCart))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	_, ok, _ := reopened.Get(ctx, KeyCart)
	assert.False(t, ok)
	v, ok, _ := reopened.Get(ctx, KeyTheme)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path)

	assert.Error(t, err)
}

func TestFileStore_EmptyFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, ok, _ := s.Get(context.Background(), KeyToken)
	assert.False(t, ok)
}

func TestFileStore_NullDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("null"), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyTheme, "dark"))
	require.NoError(t, s.Remove(ctx, KeyToken))

	v, ok, err := s.Get(ctx, KeyTheme)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}
