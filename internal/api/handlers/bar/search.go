package bar

import (
	"errors"
	"net/http"
	"time"

	"bar-inventory/internal/core/matching"
	"bar-inventory/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// streamInterval 推送進度的輪詢間隔
const streamInterval = 200 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// streamCommand 用戶端經由 WebSocket 送出的指令
type streamCommand struct {
	Action string `json:"action"` // stop
}

// HandleSearchStatus 查詢搜尋進度
func (h *Handler) HandleSearchStatus(c *gin.Context) {
	status, err := h.registry.Searches().Status(c.Param("id"))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// HandleActiveSearches 進行中的搜尋
func (h *Handler) HandleActiveSearches(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"searches": h.registry.Searches().Active()})
}

// HandleStopSearch 要求停止搜尋；搜尋會以目前結果收尾
func (h *Handler) HandleStopSearch(c *gin.Context) {
	status, err := h.registry.Searches().Stop(c.Param("id"))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, status)
}

// HandleSearchStream 以 WebSocket 推送搜尋進度，直到搜尋結束；
// 用戶端送出 {"action":"stop"} 可停止搜尋
func (h *Handler) HandleSearchStream(c *gin.Context) {
	id := c.Param("id")
	searches := h.registry.Searches()

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		common.LogError("WebSocket 升級失敗", zap.Error(err), zap.String("search_id", id))
		return
	}
	defer ws.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var cmd streamCommand
			if err := ws.ReadJSON(&cmd); err != nil {
				return
			}
			if cmd.Action == "stop" {
				if _, err := searches.Stop(id); err != nil {
					common.LogDebug("停止搜尋失敗", zap.String("search_id", id), zap.Error(err))
				}
			}
		}
	}()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var last matching.Progress
	first := true
	for {
		status, err := searches.Status(id)
		if errors.Is(err, common.ErrSearchNotFound) {
			_ = ws.WriteJSON(gin.H{"id": id, "state": matching.StateDone})
			_ = ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "search finished"))
			return
		}

		current := matching.Progress{State: status.State, Term: status.Term, Found: status.Found}
		if first || current != last {
			if err := ws.WriteJSON(status); err != nil {
				common.LogDebug("WebSocket 寫入失敗", zap.String("search_id", id), zap.Error(err))
				return
			}
			last, first = current, false
		}

		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
