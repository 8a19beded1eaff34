package cache

import (
	"context"
	"testing"
	"time"

	"bar-inventory/internal/infrastructure/config"
	"bar-inventory/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(maxSize int, ttl time.Duration) *CacheManager {
	return NewManager(config.CacheConfig{Enabled: true, MaxSize: maxSize, TTL: ttl})
}

func TestCacheManager_GetSet(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(10, time.Minute)
	defer m.Close()

	_, err := m.Get(ctx, "filter", "gin")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "filter", "Gin ", []byte(`{"drinks":[]}`)))
	got, err := m.Get(ctx, "filter", "gin")
	require.NoError(t, err)
	assert.Equal(t, `{"drinks":[]}`, string(got))

	// 命名空間互不影響
	_, err = m.Get(ctx, "lookup", "gin")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	stats := m.GetStats()
	assert.Equal(t, 1, stats.Size)
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 2, stats.Misses)
	assert.InDelta(t, 1.0/3.0, stats.HitRatio, 0.001)
}

func TestCacheManager_Expiry(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(10, 20*time.Millisecond)
	defer m.Close()

	require.NoError(t, m.Set(ctx, "doc", "lemonBar", []byte("x")))
	time.Sleep(40 * time.Millisecond)

	_, err := m.Get(ctx, "doc", "lemonBar")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	assert.EqualValues(t, 1, m.GetStats().Evictions)
}

func TestCacheManager_EvictsLeastUsed(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(2, time.Minute)
	defer m.Close()

	require.NoError(t, m.Set(ctx, "n", "a", []byte("a")))
	require.NoError(t, m.Set(ctx, "n", "b", []byte("b")))
	_, err := m.Get(ctx, "n", "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "n", "c", []byte("c")))

	_, err = m.Get(ctx, "n", "b")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	_, err = m.Get(ctx, "n", "a")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "n", "c")
	assert.NoError(t, err)
	assert.Equal(t, 2, m.GetStats().Size)
}

func TestCacheManager_OverwriteDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(1, time.Minute)
	defer m.Close()

	require.NoError(t, m.Set(ctx, "n", "a", []byte("1")))
	require.NoError(t, m.Set(ctx, "n", "a", []byte("2")))

	got, err := m.Get(ctx, "n", "a")
	require.NoError(t, err)
	assert.Equal(t, "2", string(got))
	assert.Zero(t, m.GetStats().Evictions)
}

func TestCacheManager_CloseStopsCleanup(t *testing.T) {
	m := NewManager(config.CacheConfig{Enabled: true, MaxSize: 1, TTL: time.Minute, CleanupInterval: time.Millisecond})
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(10, time.Minute)
	defer m.Close()

	type payload struct {
		IDs []string `json:"ids"`
	}

	var out payload
	assert.False(t, GetJSON(ctx, m, "filter", "rum", &out))

	SetJSON(ctx, m, "filter", "rum", payload{IDs: []string{"11007", "11000"}})
	require.True(t, GetJSON(ctx, m, "filter", "rum", &out))
	assert.Equal(t, []string{"11007", "11000"}, out.IDs)

	require.NoError(t, m.Set(ctx, "filter", "broken", []byte("{not json")))
	assert.False(t, GetJSON(ctx, m, "filter", "broken", &out))
}

func TestNopStore(t *testing.T) {
	ctx := context.Background()
	var s Store = NopStore{}

	require.NoError(t, s.Set(ctx, "n", "k", []byte("v")))
	_, err := s.Get(ctx, "n", "k")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	assert.NoError(t, s.Close())
}

func TestBadgerStore_InMemory(t *testing.T) {
	ctx := context.Background()
	s, err := NewBadgerStore("", time.Minute)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(ctx, "lookup", "11007")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, s.Set(ctx, "lookup", "11007", []byte(`{"strDrink":"Margarita"}`)))
	got, err := s.Get(ctx, "lookup", "11007")
	require.NoError(t, err)
	assert.JSONEq(t, `{"strDrink":"Margarita"}`, string(got))
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewBadgerStore(dir, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "doc", "drinksCommon", []byte("[]")))
	require.NoError(t, s.Close())

	s, err = NewBadgerStore(dir, time.Hour)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "doc", "drinksCommon")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	_, err := NewRedisStore(config.RedisConfig{Addr: "127.0.0.1:1"}, time.Minute)
	assert.Error(t, err)
}

func TestNewStore(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{Cache: config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute}}
	}

	cfg := base()
	cfg.Cache.Enabled = false
	s, err := NewStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	s, err = NewStore(base())
	require.NoError(t, err)
	assert.IsType(t, &CacheManager{}, s)
	s.Close()

	cfg = base()
	cfg.Cache.Backend = "badger"
	s, err = NewStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &BadgerStore{}, s)
	s.Close()

	cfg = base()
	cfg.Cache.Backend = "memcached"
	_, err = NewStore(cfg)
	assert.Error(t, err)
}
