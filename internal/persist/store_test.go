package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx, "deskhub:cache:tasks")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "deskhub:cache:tasks", []byte(`{"items":[1]}`)))
	got, err := s.Load(ctx, "deskhub:cache:tasks")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[1]}`, string(got))

	require.NoError(t, s.Save(ctx, "deskhub:cache:tasks", []byte(`{"items":[]}`)))
	got, err = s.Load(ctx, "deskhub:cache:tasks")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(got), "save should replace, not append")

	_, err = s.Load(ctx, "deskhub:cache:actions")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temp file left behind")
	}
}

func TestFileStore_RequiresDir(t *testing.T) {
	_, err := NewFileStore("  ")
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "hub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)
}

func TestSQLiteStore_DirectoryPath(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(context.Background(), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = os.Stat(filepath.Join(dir, "deskhub.db"))
	assert.NoError(t, err)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hub.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "k", []byte("v")))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)

	stored, err := mr.Get("deskhub:cache:tasks")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, stored)
	assert.Zero(t, mr.TTL("deskhub:cache:tasks"), "blobs must not expire")
}

func TestRedisStore_ServerErrorIsNotMissing(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = s.Close() })

	_, err := s.Load(context.Background(), "deskhub:cache:tasks")
	require.ErrorIs(t, err, ErrNotFound)

	mr.SetError("ERR backend unavailable")
	_, err = s.Load(context.Background(), "deskhub:cache:tasks")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, s.Save(context.Background(), "deskhub:cache:tasks", []byte("{}")))

	mr.SetError("")
	require.NoError(t, s.Save(context.Background(), "deskhub:cache:tasks", []byte("{}")))
	got, err := s.Load(context.Background(), "deskhub:cache:tasks")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), "redis://"+addr)
	assert.Error(t, err)
}

func TestRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not-a-url")
	assert.Error(t, err)

	_, err = NewRedisStore(context.Background(), "")
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)

	boom := errors.New("disk full")
	s.FailWith(boom)
	assert.ErrorIs(t, s.Save(context.Background(), "x", nil), boom)
	_, err := s.Load(context.Background(), "deskhub:cache:tasks")
	assert.ErrorIs(t, err, boom)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Options{Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, Options{Backend: "SQLite", Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	_ = s.Close()

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "deskhub:cache:tasks", Key("", "tasks"))
	assert.Equal(t, "work:cache:actions", Key(" work ", "actions"))
}
