package middleware

import (
	"bar-inventory/internal/core/bar"
	"bar-inventory/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BarServiceKey gin context 中酒吧服務的鍵值
const BarServiceKey = "bar_service"

// Tenant 驗證路徑中的 :tenant 並注入該酒吧的服務
func Tenant(registry *bar.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("tenant")
		svc, err := registry.Service(slug)
		if err != nil {
			common.LogWarn("未知的酒吧",
				zap.String("tenant", slug),
				zap.String("path", c.Request.URL.Path),
			)
			common.RespondError(c, err)
			return
		}

		c.Set(BarServiceKey, svc)
		c.Next()
	}
}

// BarService 取得 Tenant 中間件注入的酒吧服務
func BarService(c *gin.Context) *bar.Service {
	return c.MustGet(BarServiceKey).(*bar.Service)
}
