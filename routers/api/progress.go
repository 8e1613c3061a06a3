package api

import (
	"net/http"
	"time"

	"WenyanScene-server/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func terminal(status string) bool {
	return status == models.ScenarioStatusReady ||
		status == models.ScenarioStatusFailed ||
		status == models.ScenarioStatusCompleted
}

// 情境进度 WebSocket 推送：GET /scenarios/:scenario_id/wss
// 以数据库为来源，先推送当前记录，之后定时轮询，进度或阶段变化时推送，进入终态后关闭。
func (h *Handler) ScenarioProgressWebSocket(c *gin.Context) {
	scenarioID := c.Param("scenario_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", "scenario_id", scenarioID, "error", err)
		return
	}
	defer conn.Close()

	s, err := models.GetScenarioByID(h.DB, scenarioID)
	if err != nil {
		_ = conn.WriteJSON(gin.H{"error": "scenario not found: " + err.Error()})
		return
	}
	if err := conn.WriteJSON(s); err != nil || terminal(s.Status) {
		return
	}

	// 客户端断开时结束推送
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	interval := h.PushInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := *s
	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
		}
		cur, err := models.GetScenarioByID(h.DB, scenarioID)
		if err != nil {
			continue
		}
		if cur.Status != prev.Status || cur.Progress != prev.Progress || cur.Stage != prev.Stage {
			if err := conn.WriteJSON(cur); err != nil {
				return
			}
			prev = *cur
		}
		if terminal(cur.Status) {
			return
		}
	}
}
