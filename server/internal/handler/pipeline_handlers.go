package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ruitoque/fronteras/internal/pipeline"
	"github.com/ruitoque/fronteras/server/internal/service"
)

type PipelineHandler struct {
	pipelineService *service.PipelineService
}

func NewPipelineHandler(service *service.PipelineService) *PipelineHandler {
	return &PipelineHandler{
		pipelineService: service,
	}
}

// RunStep handles POST /v1/steps/:step?year=&month=.
func (h *PipelineHandler) RunStep(c *gin.Context) {
	step, err := pipeline.ParseStep(c.Param("step"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	year, err := optionalInt(c, "year")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	month, err := optionalInt(c, "month")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Steps outlive the request.
	ctx := context.WithoutCancel(c.Request.Context())
	results, err := h.pipelineService.RunStep(ctx, step, year, month)
	switch {
	case errors.Is(err, service.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	for _, r := range results {
		if r.Failed() {
			status = http.StatusUnprocessableEntity
			break
		}
	}
	c.JSON(status, gin.H{"step": step, "results": results})
}

// GetRuns handles GET /v1/runs?period=&limit=.
func (h *PipelineHandler) GetRuns(c *gin.Context) {
	limit, err := optionalInt(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	runs, err := h.pipelineService.LatestRuns(c.Request.Context(), c.Query("period"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

// GetHealth handles GET /v1/health.
func (h *PipelineHandler) GetHealth(c *gin.Context) {
	if err := h.pipelineService.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "running": h.pipelineService.Running()})
}

func optionalInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + key + ": " + raw)
	}
	return v, nil
}
