package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"bar-inventory/internal/pkg/common"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// BadgerStore 以本機 BadgerDB 儲存快取，重啟後仍保留外部查詢結果
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerStore 開啟資料目錄；dir 為空時使用記憶體模式
func NewBadgerStore(dir string, ttl time.Duration) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithLogger(nil).WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}

	common.LogInfo("Badger 快取已開啟", zap.String("dir", dir), zap.Duration("ttl", ttl))
	return &BadgerStore{db: db, ttl: ttl}, nil
}

// Get 獲取緩存
func (s *BadgerStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(storageKey(namespace, key)))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, common.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}
	return value, nil
}

// Set 設置緩存，過期由 BadgerDB 處理
func (s *BadgerStore) Set(ctx context.Context, namespace, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(storageKey(namespace, key)), value)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 關閉資料庫
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
