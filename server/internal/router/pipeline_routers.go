package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ruitoque/fronteras/server/internal/handler"
)

func registerPipelineRoutes(router *gin.RouterGroup, pipelineHandler *handler.PipelineHandler) {
	router.GET("/health", pipelineHandler.GetHealth)
	router.GET("/runs", pipelineHandler.GetRuns)

	steps := router.Group("/steps")
	{
		steps.POST("/:step", pipelineHandler.RunStep)
	}
}
