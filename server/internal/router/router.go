package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ruitoque/fronteras/server/internal/handler"
)

type Config struct {
	PipelineHandler *handler.PipelineHandler

	// Progress serves the websocket progress stream.
	Progress http.Handler
}

func NewRouter(cfg *Config) *gin.Engine {
	router := gin.Default()

	api := router.Group("/v1/")
	registerPipelineRoutes(api, cfg.PipelineHandler)
	if cfg.Progress != nil {
		api.GET("/ws/progress", gin.WrapH(cfg.Progress))
	}

	return router
}
