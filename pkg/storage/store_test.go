package storage

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/go-redis/redis/v8"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseKV runs the KV contract against kv.
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "history")
	require.NoError(t, err)
	assert.False(t, ok, "missing key should report ok=false")

	require.NoError(t, kv.Set(ctx, "history", `[{"path":"/a"}]`))
	v, ok, err := kv.Get(ctx, "history")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"path":"/a"}]`, v)

	require.NoError(t, kv.Set(ctx, "history", `[]`))
	v, _, err = kv.Get(ctx, "history")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	require.NoError(t, kv.Set(ctx, "other", "x"))
	require.NoError(t, kv.Delete(ctx, "history"))
	_, ok, err = kv.Get(ctx, "history")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err = kv.Get(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	// Deleting a missing key is not an error
	require.NoError(t, kv.Delete(ctx, "never-set"))

	require.NoError(t, kv.Close())
	_, _, err = kv.Get(ctx, "other")
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMemoryStore(t *testing.T) {
	exerciseKV(t, NewMemoryStore())
}

func TestMemoryStoreLen(t *testing.T) {
	m := NewMemoryStore()
	_ = m.Set(context.Background(), "a", "1")
	_ = m.Set(context.Background(), "b", "2")
	assert.Equal(t, 2, m.Len())
}

func TestFileStore(t *testing.T) {
	exerciseKV(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "kv.json")))
}

func TestFileStoreSharedBetweenInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	ctx := context.Background()

	a := NewFileStore(path)
	b := NewFileStore(path)

	require.NoError(t, a.Set(ctx, "history", "[1]"))
	v, ok, err := b.Get(ctx, "history")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[1]", v)
	assert.Equal(t, path, a.Path())
}

func TestFileStoreConcurrentWrites(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "kv.json"))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Set(ctx, string(rune('a'+i)), "v"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		_, ok, err := s.Get(ctx, string(rune('a'+i)))
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, WithRedisPrefix("test:"))
	assert.Equal(t, "test:", store.Prefix())

	require.NoError(t, store.Set(context.Background(), "k", "v"))
	assert.True(t, mr.Exists("test:k"), "key should carry the prefix")

	exerciseKV(t, store)
}

func TestRedisStoreTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, WithRedisTTL(time.Minute))
	require.NoError(t, store.Set(context.Background(), "history", "[]"))
	assert.Greater(t, mr.TTL("navrouter:history").Seconds(), 0.0)

	mr.FastForward(61 * time.Second)
	_, ok, err := store.Get(context.Background(), "history")
	require.NoError(t, err)
	assert.False(t, ok, "key should expire with the session")
}

func TestSQLStoreSQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	store := NewSQLStore(db, WithSQLDialect(DialectSQLite), WithSQLTableName("kv_test"))
	require.NoError(t, store.EnsureSchema(context.Background()))

	exerciseKV(t, store)
}

func TestSQLStoreConcurrentClose(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	store := NewSQLStore(db, WithSQLDialect(DialectSQLite))
	require.NoError(t, store.EnsureSchema(context.Background()))

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := store.Set(ctx, "k", "v"); err != nil {
					assert.ErrorIs(t, err, ErrStoreClosed)
				}
				if _, _, err := store.Get(ctx, "k"); err != nil {
					assert.ErrorIs(t, err, ErrStoreClosed)
				}
			}
		}()
	}
	require.NoError(t, store.Close())
	wg.Wait()

	assert.ErrorIs(t, store.Delete(ctx, "k"), ErrStoreClosed)
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		name    string
		want    SQLDialect
		wantErr bool
	}{
		{"postgres", DialectPostgreSQL, false},
		{"pgx", DialectPostgreSQL, false},
		{"mysql", DialectMySQL, false},
		{"sqlite3", DialectSQLite, false},
		{"oracle", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.name)
		if tt.wantErr {
			assert.Error(t, err, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestSQLStorePlaceholders(t *testing.T) {
	pg := NewSQLStore(nil)
	assert.Equal(t, "$2", pg.placeholder(2))

	my := NewSQLStore(nil, WithSQLDialect(DialectMySQL))
	assert.Equal(t, "?", my.placeholder(2))
}

// fakeS3 is an in-memory S3API.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Bucket+"/"+*in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	fake := newFakeS3()
	store := NewS3Store(fake, "bucket", WithS3Prefix("tabs/"))

	require.NoError(t, store.Set(context.Background(), "history", "[]"))
	_, ok := fake.objects["bucket/tabs/history"]
	assert.True(t, ok, "object key should carry the prefix")

	exerciseKV(t, store)
}

func TestPrefixed(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()
	a := Prefixed(base, "a:")
	b := Prefixed(base, "b:")

	require.NoError(t, a.Set(ctx, "history", "A"))
	require.NoError(t, b.Set(ctx, "history", "B"))

	v, _, _ := a.Get(ctx, "history")
	assert.Equal(t, "A", v)
	v, _, _ = base.Get(ctx, "b:history")
	assert.Equal(t, "B", v)

	require.NoError(t, a.Delete(ctx, "history"))
	_, ok, _ := base.Get(ctx, "a:history")
	assert.False(t, ok)

	// Closing a namespace leaves the shared backend open
	require.NoError(t, a.Close())
	_, _, err := base.Get(ctx, "b:history")
	assert.NoError(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	kv, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, kv)

	kv, err = Open(ctx, Config{Backend: BackendFile, Path: filepath.Join(t.TempDir(), "kv.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, kv)

	_, err = Open(ctx, Config{Backend: BackendFile})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Backend: "etcd"})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Backend: BackendS3})
	assert.Error(t, err)
}

func TestOpenRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	kv, err := Open(context.Background(), Config{Backend: BackendRedis, RedisAddr: mr.Addr(), Prefix: "p:"})
	require.NoError(t, err)

	require.NoError(t, kv.Set(context.Background(), "history", "[]"))
	assert.True(t, mr.Exists("p:history"))
	require.NoError(t, kv.Close())
}

func TestOpenSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "kv.db")
	kv, err := Open(context.Background(), Config{Backend: BackendSQL, SQLDriver: "sqlite3", SQLDSN: dsn})
	require.NoError(t, err)
	exerciseKV(t, kv)
}
