package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ruitoque/fronteras/internal/inventory"
	"github.com/ruitoque/fronteras/internal/models"
	"github.com/ruitoque/fronteras/internal/pipeline"
	"github.com/ruitoque/fronteras/internal/repository"
)

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (r *blockingRunner) Run(ctx context.Context, step pipeline.Step, targets []pipeline.Target) []pipeline.StepResult {
	close(r.started)
	<-r.release
	return []pipeline.StepResult{{Step: step, Status: pipeline.StatusSuccess}}
}

func fixedTargets(year, month int) ([]pipeline.Target, error) {
	if month > 12 {
		return nil, errors.New("bad month")
	}
	return pipeline.Explicit(models.Period{Year: 2025, Month: 1}), nil
}

func TestRunStepRejectsConcurrentRun(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewPipelineService(runner, fixedTargets, repository.NewMemoryRunRepository(), inventory.NewMemoryStore(), logrus.New())

	done := make(chan error, 1)
	go func() {
		_, err := svc.RunStep(context.Background(), pipeline.StepProcess, 0, 0)
		done <- err
	}()

	select {
	case <-runner.started:
	case <-time.After(time.Second):
		t.Fatalf("first run did not start")
	}
	if !svc.Running() {
		t.Errorf("Running() = false during a run")
	}
	if _, err := svc.RunStep(context.Background(), pipeline.StepProcess, 0, 0); !errors.Is(err, ErrBusy) {
		t.Errorf("second run err = %v, want ErrBusy", err)
	}

	close(runner.release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
	if svc.Running() {
		t.Errorf("Running() = true after the run finished")
	}
}

func TestRunStepInvalidPeriod(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewPipelineService(runner, fixedTargets, repository.NewMemoryRunRepository(), inventory.NewMemoryStore(), logrus.New())

	if _, err := svc.RunStep(context.Background(), pipeline.StepAll, 2025, 13); err == nil {
		t.Fatalf("expected period error")
	}
	if svc.Running() {
		t.Errorf("guard held after a rejected request")
	}
}

func TestLatestRunsLimits(t *testing.T) {
	runs := repository.NewMemoryRunRepository()
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		period := "2025-01"
		if i%2 == 0 {
			period = "2025-02"
		}
		run := &models.Run{ID: string(rune('a' + i)), Period: period, StartedAt: time.Unix(int64(i), 0)}
		if err := runs.Record(ctx, run); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	svc := NewPipelineService(nil, fixedTargets, runs, inventory.NewMemoryStore(), logrus.New())

	all, err := svc.LatestRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("LatestRuns: %v", err)
	}
	if len(all) != defaultRunLimit {
		t.Errorf("default limit = %d, want %d", len(all), defaultRunLimit)
	}

	feb, err := svc.LatestRuns(ctx, "2025-02", 100)
	if err != nil {
		t.Fatalf("LatestRuns: %v", err)
	}
	if len(feb) != 13 {
		t.Errorf("runs for 2025-02 = %d, want 13", len(feb))
	}
	for _, r := range feb {
		if r.Period != "2025-02" {
			t.Errorf("unexpected period %s", r.Period)
		}
	}
}

func TestHealthUsesPinger(t *testing.T) {
	svc := NewPipelineService(nil, fixedTargets, repository.NewMemoryRunRepository(), inventory.NewMemoryStore(), logrus.New())
	if err := svc.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}
