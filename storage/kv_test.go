package storage

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) (*redis.Pool, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	pool := &redis.Pool{
		MaxIdle:     2,
		IdleTimeout: time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", mr.Addr())
		},
	}
	t.Cleanup(func() { pool.Close() })
	return pool, mr
}

func TestRedisKV(t *testing.T) {
	pool, mr := newTestPool(t)
	kv := NewRedisKV(pool)

	_, ok, err := kv.GetItem("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.SetItem("k", `{"profiles":[]}`))
	got, ok, err := kv.GetItem("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"profiles":[]}`, got)

	stored, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, `{"profiles":[]}`, stored)

	require.NoError(t, kv.RemoveItem("k"))
	assert.False(t, mr.Exists("k"))
}

func TestRedisKV_ServerDown(t *testing.T) {
	pool, mr := newTestPool(t)
	mr.Close()

	a := NewAdapter(NewRedisKV(pool))
	_, ok := a.Load("acct-1")
	assert.False(t, ok)
	assert.Error(t, a.Save("acct-1", sampleSnapshot()))
}

func TestMemoryKV(t *testing.T) {
	tests := []struct {
		name    string
		quota   int
		key     string
		value   string
		wantErr error
	}{
		{"unbounded", 0, "a", "hello", nil},
		{"fits", 10, "a", "hello", nil},
		{"too large", 4, "a", "hello", ErrQuotaExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := NewMemoryKV(tt.quota)
			err := kv.SetItem(tt.key, tt.value)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMemoryKV_OverwriteReleasesQuota(t *testing.T) {
	kv := NewMemoryKV(8)
	require.NoError(t, kv.SetItem("k", "1234567"))
	require.NoError(t, kv.SetItem("k", "abcdefg"))
	assert.ErrorIs(t, kv.SetItem("j", "x"), ErrQuotaExceeded)

	require.NoError(t, kv.RemoveItem("k"))
	require.NoError(t, kv.SetItem("j", "x"))

	_, _, _ = kv.GetItem("j")
	assert.Equal(t, 1, kv.Reads())
}
