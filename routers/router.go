package routers

import (
	"WenyanScene-server/routers/api"

	"github.com/gin-gonic/gin"
)

func InitRouter(h *api.Handler) *gin.Engine {
	r := gin.Default()
	v1 := r.Group("/v1/api")
	{
		v1.POST("/scenarios", h.CreateScenario)
		v1.GET("/scenarios/:scenario_id", h.GetScenario)
		v1.GET("/scenarios/:scenario_id/content", h.GetScenarioContent)
		v1.POST("/dictionary/query", h.QueryDictionary)
	}
	r.GET("/scenarios/:scenario_id/wss", h.ScenarioProgressWebSocket)
	return r
}
