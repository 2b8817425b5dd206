package main

import (
	"context"
	"fmt"

	_ "time/tzdata"

	"github.com/gin-gonic/gin"

	"github.com/ruitoque/fronteras/configs"
	"github.com/ruitoque/fronteras/internal/app"
	"github.com/ruitoque/fronteras/internal/progress"
	"github.com/ruitoque/fronteras/server/internal/handler"
	"github.com/ruitoque/fronteras/server/internal/router"
	"github.com/ruitoque/fronteras/server/internal/service"
)

func main() {
	cfg := configs.AppLoad()
	logger := configs.NewLogger(cfg.LogLevel)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := progress.NewHub(logger)
	reporter := progress.Multi{progress.LogReporter{Logger: logger}, hub}

	a, err := app.New(context.Background(), cfg, logger, reporter)
	if err != nil {
		logger.WithError(err).Fatal("failed to assemble pipeline")
	}
	defer a.Close()

	pipelineService := service.NewPipelineService(a.Pipeline, a.Targets, a.Runs, a.Store, logger)
	pipelineHandler := handler.NewPipelineHandler(pipelineService)

	routerConfig := &router.Config{
		PipelineHandler: pipelineHandler,
		Progress:        hub,
	}

	router := router.NewRouter(routerConfig)

	if err := router.Run(fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
