package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"bar-inventory/internal/pkg/common"

	"go.uber.org/zap"
)

// WarmStatus 預熱隊列狀態
type WarmStatus struct {
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	FailedCount    int `json:"failed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Warmer 背景重新整理 CMS 文件快取，讓請求路徑直接命中快取
type Warmer struct {
	client    *Client
	queue     chan string
	done      chan struct{}
	workers   int
	timeout   time.Duration
	processed atomic.Int64
	failed    atomic.Int64
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewWarmer 創建預熱隊列
func NewWarmer(client *Client, workers, maxSize int, timeout time.Duration) *Warmer {
	if workers <= 0 {
		workers = 1
	}
	if maxSize <= 0 {
		maxSize = 16
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Warmer{
		client:  client,
		queue:   make(chan string, maxSize),
		done:    make(chan struct{}),
		workers: workers,
		timeout: timeout,
	}
}

// Start 啟動 workers
func (w *Warmer) Start() {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.work(i)
	}
}

func (w *Warmer) work(id int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case doc := <-w.queue:
			ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
			err := w.client.Refresh(ctx, doc)
			cancel()

			w.processed.Add(1)
			if err != nil {
				w.failed.Add(1)
				common.LogWarn("CMS 文件預熱失敗",
					zap.Int("worker", id),
					zap.String("document", doc),
					zap.Error(err),
				)
				continue
			}
			common.LogDebug("CMS 文件已預熱", zap.Int("worker", id), zap.String("document", doc))
		}
	}
}

// Enqueue 將文件加入預熱隊列；隊列已滿時回傳錯誤，不阻塞
func (w *Warmer) Enqueue(document string) error {
	select {
	case <-w.done:
		return fmt.Errorf("warmer is closed")
	default:
	}

	select {
	case w.queue <- document:
		return nil
	default:
		return fmt.Errorf("warm queue is full")
	}
}

// Schedule 立即並每隔 interval 將 documents 加入隊列，直到 ctx 結束或 Close；interval <= 0 時只執行一次
func (w *Warmer) Schedule(ctx context.Context, interval time.Duration, documents []string) {
	enqueueAll := func() {
		for _, doc := range documents {
			if err := w.Enqueue(doc); err != nil {
				common.LogWarn("無法排入預熱", zap.String("document", doc), zap.Error(err))
			}
		}
	}

	enqueueAll()
	if interval <= 0 {
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.done:
				return
			case <-ticker.C:
				enqueueAll()
			}
		}
	}()
}

// Status 預熱隊列狀態
func (w *Warmer) Status() WarmStatus {
	return WarmStatus{
		QueueLength:    len(w.queue),
		ProcessedCount: int(w.processed.Load()),
		FailedCount:    int(w.failed.Load()),
		MaxQueueSize:   cap(w.queue),
		Workers:        w.workers,
	}
}

// Close 停止 workers，尚未處理的文件直接捨棄
func (w *Warmer) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
	})
	w.wg.Wait()
}
