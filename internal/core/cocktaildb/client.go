// Package cocktaildb TheCocktailDB 查詢客戶端
package cocktaildb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bar-inventory/internal/core/cache"
	"bar-inventory/internal/infrastructure/config"
	"bar-inventory/internal/pkg/common"
	"bar-inventory/internal/pkg/metrics"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	serviceName = "cocktaildb"

	nsFilter = "cocktaildb:filter"
	nsLookup = "cocktaildb:lookup"
)

// Client TheCocktailDB 客戶端
type Client struct {
	client     *resty.Client
	cache      cache.Store
	limiter    *rate.Limiter
	maxDetails int
}

// NewClient 創建客戶端；store 可為 nil
func NewClient(cfg config.CocktailDBConfig, store cache.Store) *Client {
	if store == nil {
		store = cache.NopStore{}
	}
	maxDetails := cfg.MaxDetails
	if maxDetails <= 0 {
		maxDetails = 10
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"+cfg.APIKey).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)

	return &Client{
		client:     client,
		cache:      store,
		limiter:    rate.NewLimiter(limit, burst),
		maxDetails: maxDetails,
	}
}

// filterResponse filter.php 回應；查無資料時 drinks 為 null 或字串
type filterResponse struct {
	Drinks json.RawMessage `json:"drinks"`
}

type drinkSummary struct {
	ID string `json:"idDrink"`
}

type detailResponse struct {
	Drinks []rawDrink `json:"drinks"`
}

// SearchByIngredient 查詢使用指定材料的酒譜，最多取回 maxDetails 筆完整資料。
// 查無資料回傳空列表；ctx 結束後不再發出新的明細查詢，已發出的請求會完成。
func (c *Client) SearchByIngredient(ctx context.Context, term string) ([]common.Drink, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	ids, err := c.filter(ctx, term)
	if err != nil {
		return nil, err
	}
	if len(ids) > c.maxDetails {
		ids = ids[:c.maxDetails]
	}

	drinks := make([]common.Drink, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			common.LogDebug("搜尋已停止，略過剩餘明細",
				zap.String("term", term),
				zap.Int("fetched", len(drinks)),
			)
			break
		}
		d, err := c.Lookup(ctx, id)
		if err != nil {
			common.LogWarn("酒譜明細查詢失敗", zap.String("id", id), zap.Error(err))
			continue
		}
		if d != nil {
			drinks = append(drinks, *d)
		}
	}
	return drinks, nil
}

// filter 回傳含有該材料的酒譜 ID
func (c *Client) filter(ctx context.Context, term string) ([]string, error) {
	var ids []string
	if cache.GetJSON(ctx, c.cache, nsFilter, term, &ids) {
		return ids, nil
	}

	body, err := c.get(ctx, "filter", "/filter.php", "i", term)
	if err != nil {
		return nil, err
	}

	var resp filterResponse
	if err := common.ParseJSONBytes(body, &resp); err != nil {
		return nil, common.ErrExternalSearch.Wrap(fmt.Errorf("decode filter response: %w", err))
	}
	ids, err = parseSummaries(resp.Drinks)
	if err != nil {
		return nil, common.ErrExternalSearch.Wrap(err)
	}

	cache.SetJSON(ctx, c.cache, nsFilter, term, ids)
	return ids, nil
}

func parseSummaries(raw json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	// null 或 "no data found"
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || trimmed[0] == '"' {
		return []string{}, nil
	}
	var summaries []drinkSummary
	if err := json.Unmarshal(trimmed, &summaries); err != nil {
		return nil, fmt.Errorf("decode drink list: %w", err)
	}
	ids := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if s.ID != "" {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

// Lookup 依 ID 取得完整酒譜；不存在時回傳 nil
func (c *Client) Lookup(ctx context.Context, id string) (*common.Drink, error) {
	id = strings.TrimPrefix(strings.TrimSpace(id), IDPrefix)
	if id == "" {
		return nil, nil
	}

	var cached common.Drink
	if cache.GetJSON(ctx, c.cache, nsLookup, id, &cached) {
		return &cached, nil
	}

	body, err := c.get(ctx, "lookup", "/lookup.php", "i", id)
	if err != nil {
		return nil, err
	}
	drinks, err := decodeDetails(body)
	if err != nil {
		return nil, err
	}
	if len(drinks) == 0 {
		return nil, nil
	}

	cache.SetJSON(ctx, c.cache, nsLookup, id, drinks[0])
	return &drinks[0], nil
}

// Random 同時取得 n 筆隨機酒譜，重複的只保留一筆；全部失敗時回傳錯誤
func (c *Client) Random(ctx context.Context, n int) ([]common.Drink, error) {
	if n <= 0 {
		return nil, nil
	}

	results := make([][]common.Drink, n)
	errs := make([]error, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			body, err := c.get(ctx, "random", "/random.php", "", "")
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i], errs[i] = decodeDetails(body)
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool)
	var drinks []common.Drink
	failed := 0
	for i := range results {
		if errs[i] != nil {
			failed++
			common.LogWarn("隨機酒譜取得失敗", zap.Error(errs[i]))
			continue
		}
		for _, d := range results[i] {
			if !seen[d.ID] {
				seen[d.ID] = true
				drinks = append(drinks, d)
			}
		}
	}
	if failed == n {
		return nil, fmt.Errorf("all %d random cocktail requests failed: %w", n, errs[0])
	}
	return drinks, nil
}

func decodeDetails(body []byte) ([]common.Drink, error) {
	var resp detailResponse
	if err := common.ParseJSONBytes(body, &resp); err != nil {
		return nil, common.ErrExternalSearch.Wrap(fmt.Errorf("decode drink details: %w", err))
	}
	drinks := make([]common.Drink, 0, len(resp.Drinks))
	for _, r := range resp.Drinks {
		if d, ok := r.toDrink(); ok {
			drinks = append(drinks, d)
		}
	}
	return drinks, nil
}

// get 發出請求；已發出的請求不受 ctx 取消影響
func (c *Client) get(ctx context.Context, endpoint, path, param, value string) ([]byte, error) {
	reqCtx := context.WithoutCancel(ctx)
	if err := c.limiter.Wait(reqCtx); err != nil {
		return nil, common.ErrExternalSearch.Wrap(fmt.Errorf("rate limiter: %w", err))
	}

	start := time.Now()
	req := c.client.R().SetContext(reqCtx)
	if param != "" {
		req.SetQueryParam(param, value)
	}
	resp, err := req.Get(path)
	duration := time.Since(start)

	if err == nil && resp.StatusCode() != http.StatusOK {
		err = fmt.Errorf("%s returned status %d", path, resp.StatusCode())
	}
	common.LogExternalCall(serviceName, value, duration, err)
	if err != nil {
		metrics.RecordExternalCall(endpoint, "error", duration)
		return nil, common.ErrExternalSearch.Wrap(err)
	}
	metrics.RecordExternalCall(endpoint, "success", duration)
	return resp.Body(), nil
}
