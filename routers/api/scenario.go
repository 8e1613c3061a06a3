package api

import (
	"errors"
	"net/http"
	"strings"

	"WenyanScene-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const titleRunes = 20

// 创建学习情境并触发生成：POST /v1/api/scenarios
func (h *Handler) CreateScenario(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
		Text   string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少文言文内容"})
		return
	}

	scenario := models.Scenario{
		ID:           uuid.NewString(),
		UserID:       req.UserID,
		Title:        scenarioTitle(text),
		OriginalText: text,
		Status:       models.ScenarioStatusProcessing,
		Progress:     0,
	}
	if err := models.CreateScenario(h.DB, &scenario); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建情境失败: " + err.Error()})
		return
	}

	if err := h.Pipeline.StartPipeline(scenario.ID, text); err != nil {
		h.Log.Error("enqueue scenario failed", "scenario_id", scenario.ID, "error", err)
		if ferr := models.MarkScenarioFailed(h.DB, scenario.ID, "处理失败: 任务入队失败"); ferr != nil {
			h.Log.Error("mark scenario failed", "scenario_id", scenario.ID, "error", ferr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "任务入队失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scenario_id": scenario.ID,
		"status":      scenario.Status,
	})
}

// 查询情境状态与进度：GET /v1/api/scenarios/:scenario_id
func (h *Handler) GetScenario(c *gin.Context) {
	s, err := models.GetScenarioByID(h.DB, c.Param("scenario_id"))
	if err != nil {
		if errors.Is(err, models.ErrScenarioNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "情境未找到"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取情境失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenario": s})
}

// 获取生成内容：GET /v1/api/scenarios/:scenario_id/content，生成完成前返回 404
func (h *Handler) GetScenarioContent(c *gin.Context) {
	content, err := models.GetScenarioContent(h.DB, c.Param("scenario_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "内容尚未生成"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取内容失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

func scenarioTitle(text string) string {
	r := []rune(text)
	if len(r) > titleRunes {
		r = r[:titleRunes]
	}
	return string(r) + "..."
}
