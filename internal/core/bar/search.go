package bar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bar-inventory/internal/core/matching"
	"bar-inventory/internal/pkg/common"
	"bar-inventory/internal/pkg/metrics"

	"go.uber.org/zap"
)

// SearchStatus 進行中搜尋的狀態
type SearchStatus struct {
	ID            string         `json:"id"`
	Tenant        string         `json:"tenant"`
	Bottle        string         `json:"bottle"`
	State         matching.State `json:"state"`
	Term          string         `json:"term,omitempty"`
	Found         int            `json:"found"`
	StopRequested bool           `json:"stop_requested"`
	StartedAt     time.Time      `json:"started_at"`
}

type searchEntry struct {
	status SearchStatus
	cancel context.CancelFunc
	done   func()
}

// SearchRegistry 記錄進行中的搜尋，提供進度查詢與停止
type SearchRegistry struct {
	mu       sync.Mutex
	searches map[string]*searchEntry
}

// NewSearchRegistry 創建搜尋登記表
func NewSearchRegistry() *SearchRegistry {
	return &SearchRegistry{searches: make(map[string]*searchEntry)}
}

// SearchHandle 單次搜尋的登記，搜尋結束時必須呼叫 Done
type SearchHandle struct {
	registry *SearchRegistry
	id       string
}

// Start 登記搜尋；回傳的 ctx 會在 Stop 時取消
func (r *SearchRegistry) Start(parent context.Context, id, tenant, bottle string) (context.Context, *SearchHandle, error) {
	if id == "" {
		id = common.GenerateUUID()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.searches[id]; exists {
		return nil, nil, common.ErrInvalidRequest.Wrap(fmt.Errorf("search %s is already running", id))
	}

	ctx, cancel := context.WithCancel(parent)
	r.searches[id] = &searchEntry{
		status: SearchStatus{
			ID:        id,
			Tenant:    tenant,
			Bottle:    bottle,
			State:     matching.StateIdle,
			StartedAt: time.Now(),
		},
		cancel: cancel,
		done:   metrics.SearchStarted(),
	}
	return ctx, &SearchHandle{registry: r, id: id}, nil
}

// ID 搜尋 ID
func (h *SearchHandle) ID() string {
	return h.id
}

// Report 更新進度，可作為 matching.ProgressFunc
func (h *SearchHandle) Report(p matching.Progress) {
	r := h.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.searches[h.id]; ok {
		e.status.State = p.State
		e.status.Term = p.Term
		e.status.Found = p.Found
	}
}

// Done 移除登記並釋放 ctx
func (h *SearchHandle) Done() {
	r := h.registry
	r.mu.Lock()
	e, ok := r.searches[h.id]
	delete(r.searches, h.id)
	r.mu.Unlock()

	if ok {
		e.cancel()
		e.done()
	}
}

// Stop 要求停止搜尋；已發出的外部請求會完成
func (r *SearchRegistry) Stop(id string) (SearchStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.searches[id]
	if !ok {
		return SearchStatus{}, common.ErrSearchNotFound
	}
	e.status.StopRequested = true
	e.cancel()

	common.LogInfo("已要求停止搜尋",
		zap.String("search_id", id),
		zap.String("tenant", e.status.Tenant),
		zap.String("bottle", e.status.Bottle),
	)
	return e.status, nil
}

// Status 查詢搜尋進度
func (r *SearchRegistry) Status(id string) (SearchStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.searches[id]
	if !ok {
		return SearchStatus{}, common.ErrSearchNotFound
	}
	return e.status, nil
}

// Active 進行中的搜尋，依開始時間排序
func (r *SearchRegistry) Active() []SearchStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]SearchStatus, 0, len(r.searches))
	for _, e := range r.searches {
		out = append(out, e.status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}
