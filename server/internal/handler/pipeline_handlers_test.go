package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ruitoque/fronteras/internal/inventory"
	"github.com/ruitoque/fronteras/internal/models"
	"github.com/ruitoque/fronteras/internal/pipeline"
	"github.com/ruitoque/fronteras/internal/repository"
	"github.com/ruitoque/fronteras/server/internal/service"
)

type fakeRunner struct {
	status pipeline.Status
	got    []pipeline.Target
}

func (r *fakeRunner) Run(ctx context.Context, step pipeline.Step, targets []pipeline.Target) []pipeline.StepResult {
	r.got = targets
	out := make([]pipeline.StepResult, 0, len(targets))
	for _, t := range targets {
		out = append(out, pipeline.StepResult{Step: step, Period: t.Period.String(), Status: r.status})
	}
	return out
}

func targets(year, month int) ([]pipeline.Target, error) {
	if year == 0 && month == 0 {
		return []pipeline.Target{
			{Period: models.Period{Year: 2025, Month: 1}},
			{Period: models.Period{Year: 2025, Month: 2}, Current: true},
		}, nil
	}
	p, err := models.NewPeriod(year, month)
	if err != nil {
		return nil, err
	}
	return pipeline.Explicit(p), nil
}

type failingPinger struct{ *inventory.MemoryStore }

func (failingPinger) Ping(ctx context.Context) error { return errors.New("graph unreachable") }

func newEngine(runner service.Runner, runs repository.RunRepository, store inventory.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPipelineHandler(service.NewPipelineService(runner, targets, runs, store, logrus.New()))
	r := gin.New()
	r.POST("/v1/steps/:step", h.RunStep)
	r.GET("/v1/runs", h.GetRuns)
	r.GET("/v1/health", h.GetHealth)
	return r
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRunStep(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    pipeline.Status
		wantCode  int
		wantCount int
	}{
		{"cycle", "/v1/steps/process", pipeline.StatusSuccess, http.StatusOK, 2},
		{"explicit period", "/v1/steps/3?year=2024&month=12", pipeline.StatusEmpty, http.StatusOK, 1},
		{"failed step", "/v1/steps/annual", pipeline.StatusFailure, http.StatusUnprocessableEntity, 2},
		{"unknown step", "/v1/steps/publish", pipeline.StatusSuccess, http.StatusBadRequest, 0},
		{"bad month", "/v1/steps/all?year=2024&month=13", pipeline.StatusSuccess, http.StatusBadRequest, 0},
		{"non numeric year", "/v1/steps/all?year=abc&month=1", pipeline.StatusSuccess, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{status: tt.status}
			r := newEngine(runner, repository.NewMemoryRunRepository(), inventory.NewMemoryStore())

			w := do(r, http.MethodPost, tt.path)
			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCount == 0 {
				return
			}
			var body struct {
				Step    string                `json:"step"`
				Results []pipeline.StepResult `json:"results"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.Results) != tt.wantCount {
				t.Errorf("results = %d, want %d", len(body.Results), tt.wantCount)
			}
		})
	}
}

func TestGetRuns(t *testing.T) {
	runs := repository.NewMemoryRunRepository()
	ctx := context.Background()
	_ = runs.Record(ctx, &models.Run{ID: "old", Period: "2025-01", StartedAt: time.Unix(10, 0)})
	_ = runs.Record(ctx, &models.Run{ID: "new", Period: "2025-02", StartedAt: time.Unix(20, 0)})
	r := newEngine(&fakeRunner{}, runs, inventory.NewMemoryStore())

	w := do(r, http.MethodGet, "/v1/runs")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	var got []models.Run
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].ID != "new" {
		t.Errorf("runs = %+v, want newest first", got)
	}

	w = do(r, http.MethodGet, "/v1/runs?period=2025-01")
	got = nil
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != "old" {
		t.Errorf("filtered runs = %+v", got)
	}

	if w := do(r, http.MethodGet, "/v1/runs?limit=x"); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit code = %d", w.Code)
	}
}

func TestGetHealth(t *testing.T) {
	ok := newEngine(&fakeRunner{}, repository.NewMemoryRunRepository(), inventory.NewMemoryStore())
	if w := do(ok, http.MethodGet, "/v1/health"); w.Code != http.StatusOK {
		t.Errorf("healthy code = %d", w.Code)
	}

	down := newEngine(&fakeRunner{}, repository.NewMemoryRunRepository(), failingPinger{inventory.NewMemoryStore()})
	if w := do(down, http.MethodGet, "/v1/health"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy code = %d", w.Code)
	}
}
