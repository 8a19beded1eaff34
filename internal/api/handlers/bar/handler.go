package bar

import (
	"errors"
	"io"
	"net/http"

	"bar-inventory/internal/api/middleware"
	barService "bar-inventory/internal/core/bar"
	"bar-inventory/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SearchIDHeader 搜尋 ID 標頭；用戶端可預先指定，以便在搜尋進行中停止
const SearchIDHeader = "X-Search-ID"

// Handler 酒吧 API 處理程序
type Handler struct {
	registry *barService.Registry
}

// NewHandler 創建新的酒吧處理程序
func NewHandler(registry *barService.Registry) *Handler {
	return &Handler{registry: registry}
}

// TenantsResponse 酒吧清單
type TenantsResponse struct {
	Default string              `json:"default"`
	Tenants []barService.Tenant `json:"tenants"`
	Slugs   []string            `json:"slugs"`
	Samples []string            `json:"samples"`
}

// AvailableRequest 可調製酒單請求
type AvailableRequest struct {
	Favorites []string `json:"favorites,omitempty"`
}

// MatchRequest 單瓶搜尋請求
type MatchRequest struct {
	BottleID  string   `json:"bottle_id" binding:"required"`
	Favorites []string `json:"favorites,omitempty"`
}

// HandleTenants 列出所有酒吧
func (h *Handler) HandleTenants(c *gin.Context) {
	c.JSON(http.StatusOK, TenantsResponse{
		Default: h.registry.Default().Slug,
		Tenants: h.registry.Tenants(),
		Slugs:   h.registry.Slugs(),
		Samples: h.registry.SampleSlugs(),
	})
}

// HandleInventory 酒瓶清單
func (h *Handler) HandleInventory(c *gin.Context) {
	svc := middleware.BarService(c)
	bottles, err := svc.Inventory(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tenant":  svc.Tenant().Slug,
		"bottles": bottles,
	})
}

// HandleBeverages 啤酒與葡萄酒
func (h *Handler) HandleBeverages(c *gin.Context) {
	svc := middleware.BarService(c)
	beverages, err := svc.Beverages(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tenant":    svc.Tenant().Slug,
		"beverages": beverages,
	})
}

// HandleEssentials 基本材料（依分類）
func (h *Handler) HandleEssentials(c *gin.Context) {
	svc := middleware.BarService(c)
	groups, err := svc.EssentialsByCategory(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tenant":     svc.Tenant().Slug,
		"categories": groups,
	})
}

// HandleDrinks 所有酒譜與庫存狀況；favorites 以查詢參數重複帶入
func (h *Handler) HandleDrinks(c *gin.Context) {
	svc := middleware.BarService(c)
	drinks, err := svc.DrinksWithAvailability(c.Request.Context(), c.QueryArray("favorite"))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tenant": svc.Tenant().Slug,
		"drinks": drinks,
	})
}

// HandleAvailable 目前可調製的酒譜
func (h *Handler) HandleAvailable(c *gin.Context) {
	svc := middleware.BarService(c)

	var req AvailableRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		common.RespondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	drinks, err := svc.AvailableDrinks(c.Request.Context(), req.Favorites)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tenant": svc.Tenant().Slug,
		"drinks": drinks,
	})
}

// HandleMatches 搜尋使用指定酒瓶的酒譜
func (h *Handler) HandleMatches(c *gin.Context) {
	svc := middleware.BarService(c)

	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("tenant", svc.Tenant().Slug),
		)
		common.RespondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	searchID := c.GetHeader(SearchIDHeader)
	if searchID == "" {
		searchID = requestid.Get(c)
	}
	c.Header(SearchIDHeader, searchID)

	result, err := svc.FindMatches(c.Request.Context(), searchID, req.BottleID, req.Favorites)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
