// Package cache 外部回應與 CMS 文件的快取
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"bar-inventory/internal/infrastructure/config"
	"bar-inventory/internal/pkg/common"
	"bar-inventory/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Store 快取儲存介面；未命中時回傳 common.ErrCacheMiss
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Close() error
}

// 快取後端
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// NewStore 依設定建立快取；停用時回傳不儲存任何內容的 Store
func NewStore(cfg *config.Config) (Store, error) {
	if !cfg.Cache.Enabled {
		common.LogInfo("快取已停用")
		return NopStore{}, nil
	}

	backend := strings.ToLower(cfg.Cache.Backend)
	if cfg.Redis.Enabled {
		backend = BackendRedis
	}

	switch backend {
	case BackendRedis:
		return NewRedisStore(cfg.Redis, cfg.Cache.TTL)
	case BackendBadger:
		return NewBadgerStore(cfg.Cache.Dir, cfg.Cache.TTL)
	case "", BackendMemory:
		return NewManager(cfg.Cache), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// GetJSON 讀取並解析快取內容，回傳是否命中
func GetJSON(ctx context.Context, s Store, namespace, key string, v interface{}) bool {
	data, err := s.Get(ctx, namespace, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("快取讀取失敗", zap.String("namespace", namespace), zap.Error(err))
		}
		metrics.RecordCacheLookup(namespace, false)
		common.LogCacheMiss(namespace)
		return false
	}
	if err := common.ParseJSONBytes(data, v); err != nil {
		common.LogWarn("快取內容無法解析", zap.String("namespace", namespace), zap.Error(err))
		metrics.RecordCacheLookup(namespace, false)
		return false
	}
	metrics.RecordCacheLookup(namespace, true)
	common.LogCacheHit(namespace)
	return true
}

// SetJSON 序列化後寫入快取；寫入失敗只記錄，不影響呼叫端
func SetJSON(ctx context.Context, s Store, namespace, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		common.LogWarn("快取內容無法序列化", zap.String("namespace", namespace), zap.Error(err))
		return
	}
	if err := s.Set(ctx, namespace, key, data); err != nil {
		common.LogWarn("快取寫入失敗", zap.String("namespace", namespace), zap.Error(err))
	}
}

// NopStore 不快取
type NopStore struct{}

func (NopStore) Get(context.Context, string, string) ([]byte, error) { return nil, common.ErrCacheMiss }
func (NopStore) Set(context.Context, string, string, []byte) error   { return nil }
func (NopStore) Close() error                                        { return nil }

func storageKey(namespace, key string) string {
	return "bar:" + namespace + ":" + strings.ToLower(strings.TrimSpace(key))
}
