package service

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ruitoque/fronteras/internal/inventory"
	"github.com/ruitoque/fronteras/internal/models"
	"github.com/ruitoque/fronteras/internal/pipeline"
	"github.com/ruitoque/fronteras/internal/repository"
)

// ErrBusy is returned while another step runs in this process.
var ErrBusy = errors.New("a step is already running")

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

type Runner interface {
	Run(ctx context.Context, step pipeline.Step, targets []pipeline.Target) []pipeline.StepResult
}

// TargetFunc resolves an optional explicit period into run targets.
type TargetFunc func(year, month int) ([]pipeline.Target, error)

type PipelineService struct {
	runner  Runner
	targets TargetFunc
	runs    repository.RunRepository
	store   inventory.Store
	logger  *logrus.Entry

	mu      sync.Mutex
	running bool
}

func NewPipelineService(runner Runner, targets TargetFunc, runs repository.RunRepository, store inventory.Store, logger *logrus.Logger) *PipelineService {
	return &PipelineService{
		runner:  runner,
		targets: targets,
		runs:    runs,
		store:   store,
		logger:  logger.WithField("component", "pipeline_service"),
	}
}

// RunStep runs step for the explicit period, or for the reporting cycle when
// year and month are zero. Only one step runs at a time.
func (s *PipelineService) RunStep(ctx context.Context, step pipeline.Step, year, month int) ([]pipeline.StepResult, error) {
	targets, err := s.targets(year, month)
	if err != nil {
		return nil, err
	}
	if !s.acquire() {
		return nil, ErrBusy
	}
	defer s.release()

	s.logger.WithField("step", step).Info("step requested")
	return s.runner.Run(ctx, step, targets), nil
}

// Running reports whether a step is in progress.
func (s *PipelineService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *PipelineService) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *PipelineService) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// LatestRuns lists recorded runs, newest first, optionally for one period.
func (s *PipelineService) LatestRuns(ctx context.Context, period string, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	if limit > maxRunLimit {
		limit = maxRunLimit
	}
	if period != "" {
		return s.runs.LatestByPeriod(ctx, period, limit)
	}
	return s.runs.Latest(ctx, limit)
}

// Health checks the document store when it supports it.
func (s *PipelineService) Health(ctx context.Context) error {
	if p, ok := s.store.(inventory.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
