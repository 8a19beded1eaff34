// Package catalog Cockpit CMS 酒吧資料讀取與格式轉換
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"bar-inventory/internal/core/cache"
	"bar-inventory/internal/infrastructure/config"
	"bar-inventory/internal/pkg/common"
	"bar-inventory/internal/pkg/metrics"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	nsDocument = "cockpit"

	// CommonDocument 共用酒單的 CMS 集合名稱
	CommonDocument = "drinksCommon"
)

// Client Cockpit CMS 客戶端
type Client struct {
	client      *resty.Client
	cache       cache.Store
	conv        converter
	fallbackDir string
}

// NewClient 創建 CMS 客戶端；store 可為 nil
func NewClient(cfg config.CockpitConfig, store cache.Store) *Client {
	if store == nil {
		store = cache.NopStore{}
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Cockpit-Token", cfg.APIKey).
		SetTimeout(cfg.Timeout)

	return &Client{
		client:      client,
		cache:       store,
		conv:        converter{assetURL: cfg.AssetURL},
		fallbackDir: cfg.FallbackDir,
	}
}

// BarData 讀取酒吧文件
func (c *Client) BarData(ctx context.Context, document string) (*BarData, error) {
	body, err := c.document(ctx, document, endpoint(document), document+".json")
	if err != nil {
		return nil, err
	}

	var raw rawBarData
	if err := common.ParseJSONBytes(body, &raw); err != nil {
		return nil, fmt.Errorf("decode bar data %s: %w", document, err)
	}
	return c.conv.barData(raw), nil
}

// CommonDrinks 讀取各酒吧共用的酒單
func (c *Client) CommonDrinks(ctx context.Context) ([]common.Drink, error) {
	body, err := c.document(ctx, CommonDocument, endpoint(CommonDocument), CommonDocument+".json")
	if err != nil {
		return nil, err
	}

	var raw rawEntries
	if err := common.ParseJSONBytes(body, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", CommonDocument, err)
	}
	return c.conv.commonDrinks(raw.Entries), nil
}

// endpoint 文件對應的 CMS 路徑
func endpoint(document string) string {
	if document == CommonDocument {
		return "/content/items/" + CommonDocument
	}
	return "/content/item/" + document
}

// Refresh 略過快取重新向 CMS 取得文件並寫入快取
func (c *Client) Refresh(ctx context.Context, document string) error {
	body, err := c.fetch(ctx, endpoint(document))
	if err != nil {
		metrics.RecordCatalogRequest(document, "error")
		return err
	}
	metrics.RecordCatalogRequest(document, "success")
	return c.cache.Set(ctx, nsDocument, document, body)
}

// document 依序嘗試快取、CMS、本地備援檔
func (c *Client) document(ctx context.Context, name, endpoint, fallbackFile string) ([]byte, error) {
	if body, err := c.cache.Get(ctx, nsDocument, name); err == nil {
		metrics.RecordCacheLookup(nsDocument, true)
		common.LogCacheHit(nsDocument)
		return body, nil
	}
	metrics.RecordCacheLookup(nsDocument, false)

	body, err := c.fetch(ctx, endpoint)
	if err == nil {
		metrics.RecordCatalogRequest(name, "success")
		if err := c.cache.Set(ctx, nsDocument, name, body); err != nil {
			common.LogWarn("CMS 文件快取寫入失敗", zap.String("document", name), zap.Error(err))
		}
		return body, nil
	}

	if c.fallbackDir == "" {
		metrics.RecordCatalogRequest(name, "error")
		return nil, err
	}

	path := filepath.Join(c.fallbackDir, fallbackFile)
	local, ferr := os.ReadFile(path)
	if ferr != nil {
		metrics.RecordCatalogRequest(name, "error")
		return nil, errors.Join(err, fmt.Errorf("read fallback %s: %w", path, ferr))
	}

	metrics.RecordCatalogRequest(name, "fallback")
	common.LogWarn("CMS 無法連線，改用本地資料",
		zap.String("document", name),
		zap.String("path", path),
		zap.Error(err),
	)
	return local, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Cockpit: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("Cockpit API error: %s", resp.Status())
	}
	return resp.Body(), nil
}

// TenantCatalog 單一酒吧的酒單來源
type TenantCatalog struct {
	client        *Client
	document      string
	includeCommon bool
}

// ForTenant 建立酒吧專用的酒單來源
func (c *Client) ForTenant(document string, includeCommon bool) *TenantCatalog {
	return &TenantCatalog{client: c, document: document, includeCommon: includeCommon}
}

// FetchBarData 讀取酒吧文件
func (t *TenantCatalog) FetchBarData(ctx context.Context) (*BarData, error) {
	return t.client.BarData(ctx, t.document)
}

// FetchLocalCocktails 店家自有酒單
func (t *TenantCatalog) FetchLocalCocktails(ctx context.Context) ([]common.Drink, error) {
	data, err := t.FetchBarData(ctx)
	if err != nil {
		return nil, err
	}
	return data.Drinks, nil
}

// FetchCommonCocktails 共用酒單；酒吧未啟用時不發出請求
func (t *TenantCatalog) FetchCommonCocktails(ctx context.Context) ([]common.Drink, error) {
	if !t.includeCommon {
		return []common.Drink{}, nil
	}
	return t.client.CommonDrinks(ctx)
}
