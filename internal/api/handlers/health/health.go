package health

import (
	"net/http"
	"runtime"
	"time"

	"bar-inventory/internal/core/bar"
	"bar-inventory/internal/infrastructure/config"
	"bar-inventory/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Bars      *BarStatus             `json:"bars,omitempty"`
}

// BarStatus 酒吧與搜尋狀態
type BarStatus struct {
	Tenants        int `json:"tenants"`
	ActiveSearches int `json:"active_searches"`
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	// 獲取配置
	cfg, exists := c.Get("config")
	if !exists {
		common.LogError("Configuration not found in context")
		common.RespondError(c, common.ErrInternalError)
		return
	}
	config, ok := cfg.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		common.RespondError(c, common.ErrInternalError)
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// 構建響應
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   config.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if registry, ok := registryFrom(c); ok {
		response.Bars = &BarStatus{
			Tenants:        len(registry.Tenants()),
			ActiveSearches: len(registry.Searches().Active()),
		}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器：酒吧服務已建立才算就緒
func ReadinessCheck(c *gin.Context) {
	if _, ok := registryFrom(c); !ok {
		common.RespondError(c, common.ErrServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func registryFrom(c *gin.Context) (*bar.Registry, bool) {
	v, exists := c.Get("bar_registry")
	if !exists {
		return nil, false
	}
	registry, ok := v.(*bar.Registry)
	return registry, ok && registry != nil
}
