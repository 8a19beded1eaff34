package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	barHandler "bar-inventory/internal/api/handlers/bar"
	"bar-inventory/internal/api/handlers/health"
	"bar-inventory/internal/api/middleware"
	"bar-inventory/internal/core/bar"
	"bar-inventory/internal/infrastructure/config"
	"bar-inventory/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	// 超時設置；單瓶搜尋可能需要多次外部查詢
	timeoutDuration = 120 * time.Second
	// 預設請求體大小限制 (1MB)
	defaultMaxBodySize = 1 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, registry *bar.Registry) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("bar registry is required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", barHandler.SearchIDHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", barHandler.SearchIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	maxBodySize := cfg.Server.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 全局中間件：設置超時與服務
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)
		c.Set("bar_registry", registry)

		c.Next()

		// 檢查是否超時
		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeoutDuration),
			)
			common.RespondError(c, common.ErrGatewayTimeout)
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := barHandler.NewHandler(registry)

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.Deduplication(cfg.DedupWindow))
	{
		api.GET("/tenants", h.HandleTenants)

		// 各酒吧路由
		bars := api.Group("/bars/:tenant", middleware.Tenant(registry))
		{
			bars.GET("/inventory", h.HandleInventory)
			bars.GET("/beverages", h.HandleBeverages)
			bars.GET("/essentials", h.HandleEssentials)
			bars.GET("/drinks", h.HandleDrinks)
			bars.POST("/available", h.HandleAvailable)
			bars.POST("/matches", h.HandleMatches)
		}

		// 搜尋進度與停止
		searches := api.Group("/searches")
		{
			searches.GET("", h.HandleActiveSearches)
			searches.GET("/:id", h.HandleSearchStatus)
			searches.DELETE("/:id", h.HandleStopSearch)
			searches.GET("/:id/stream", h.HandleSearchStream)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{
			Code:    common.ErrCodeNotFound,
			Message: common.ErrNotFound.Message,
		})
	})

	common.LogInfo("Router setup completed successfully",
		zap.Strings("tenants", registry.Slugs()),
		zap.Strings("sample_tenants", registry.SampleSlugs()),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
