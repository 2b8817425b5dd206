package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"

	"github.com/ruitoque/fronteras/internal/inventory"
	"github.com/ruitoque/fronteras/internal/ledger"
	"github.com/ruitoque/fronteras/internal/models"
	"github.com/ruitoque/fronteras/internal/staging"
	"github.com/ruitoque/fronteras/internal/tabular"
)

var layout = inventory.Layout{MonthRoot: "aenc_pruebas", LedgerFolder: "aenc_pruebas/fact_consumos"}

type memRecorder struct {
	mu   sync.Mutex
	runs []*models.Run
}

func (r *memRecorder) Record(ctx context.Context, run *models.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func latin1(t *testing.T, lines ...string) []byte {
	t.Helper()
	data, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(strings.Join(lines, "\n") + "\n"))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

type fixture struct {
	source   *inventory.MemorySource
	store    *inventory.MemoryStore
	recorder *memRecorder
	pipeline *Pipeline
}

func newFixture(t *testing.T, bootstrap bool) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	f := &fixture{
		source:   inventory.NewMemorySource(),
		store:    inventory.NewMemoryStore(),
		recorder: &memRecorder{},
	}
	f.pipeline = New(Options{
		Source:    f.source,
		Store:     f.store,
		Layout:    layout,
		Staging:   staging.Area{Root: t.TempDir()},
		Bootstrap: bootstrap,
		Recorder:  f.recorder,
		Logger:    logger,
	})
	return f
}

func (f *fixture) publish(t *testing.T, period models.Period) {
	f.source.Put(period, "aenc0101.TxR", latin1(t,
		"CODIGO SIC;CODIGO PROPIO;TIPO DE AGRUPACIÓN;IMPO - EXPO;HORA 01;HORA 02",
		"F1;uno;Comercial;IMPO;10;20",
	))
	f.source.Put(period, "tfroc0101.TxR", latin1(t,
		"CODIGO FRONTERA;FACTOR DE PERDIDAS;MERCADO COMERCIALIZACIÓN QUE EXPORTA;NIVEL DE TENSION",
		"F1;0.5;SOLM;25",
	))
}

func statuses(results []StepResult) []Status {
	out := make([]Status, len(results))
	for i, r := range results {
		out[i] = r.Status
	}
	return out
}

func TestRunAllWithBootstrap(t *testing.T) {
	ctx := context.Background()
	period := models.Period{Year: 2025, Month: 1}
	f := newFixture(t, true)
	f.publish(t, period)

	results := f.pipeline.Run(ctx, StepAll, Explicit(period))
	want := []Status{StatusSuccess, StatusSuccess, StatusSuccess, StatusSuccess}
	if got := statuses(results); !reflect.DeepEqual(got, want) {
		for _, r := range results {
			t.Logf("%s: %s %s", r.Step, r.Status, r.Message)
		}
		t.Fatalf("statuses = %v, want %v", got, want)
	}

	items, _ := f.store.List(ctx, layout.MonthFolder(period))
	wantFiles := []string{
		"aenc0101.TxR", "aenc_consolidado_01_2025.csv", "consumos_01_2025.csv",
		"tfroc0101.TxR", "total_consumo_01_2025.csv",
	}
	if got := inventory.Names(items); !reflect.DeepEqual(got, wantFiles) {
		t.Errorf("month folder = %v, want %v", got, wantFiles)
	}

	sl := ledger.StoreLedger{Store: f.store, Layout: layout}
	tbl, err := sl.Load(ctx, 2025)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if tbl.Len() != 1 || tbl.Rows[0][0] != "2025-01-01" {
		t.Errorf("ledger rows = %q", tbl.Rows)
	}

	if len(f.recorder.runs) != 4 {
		t.Fatalf("recorded %d runs, want 4", len(f.recorder.runs))
	}
	for _, run := range f.recorder.runs {
		if run.ID == "" || run.Period != "2025-01" {
			t.Errorf("run = %+v", run)
		}
	}
	if f.recorder.runs[3].Step != string(StepAnnual) {
		t.Errorf("last run step = %q", f.recorder.runs[3].Step)
	}
}

func TestRunAllWithUnpublishedCurrentMonth(t *testing.T) {
	ctx := context.Background()
	previous := models.Period{Year: 2025, Month: 1}
	current := models.Period{Year: 2025, Month: 2}
	f := newFixture(t, true)
	f.publish(t, previous)

	targets := []Target{{Period: previous}, {Period: current, Current: true}}
	results := f.pipeline.Run(ctx, StepAll, targets)
	if len(results) != 8 {
		for _, r := range results {
			t.Logf("%s %s: %s %s", r.Step, r.Period, r.Status, r.Message)
		}
		t.Fatalf("results = %d, want 8", len(results))
	}
	for _, r := range results {
		want := StatusSuccess
		if r.Period == current.String() {
			want = StatusEmpty
		}
		if r.Status != want {
			t.Errorf("%s %s: status = %s (%s), want %s", r.Step, r.Period, r.Status, r.Message, want)
		}
	}

	tbl, err := ledger.StoreLedger{Store: f.store, Layout: layout}.Load(ctx, 2025)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if tbl.Len() != 1 || tbl.Rows[0][0] != "2025-01-01" {
		t.Errorf("ledger rows = %q", tbl.Rows)
	}
}

func TestRunAllStopsAtFirstFailure(t *testing.T) {
	f := newFixture(t, false)
	f.source.ConnectErr = errors.New("tls handshake timeout")

	results := f.pipeline.Run(context.Background(), StepAll, Explicit(models.Period{Year: 2025, Month: 1}))
	if len(results) != 1 || !results[0].Failed() {
		t.Fatalf("results = %+v, want a single failed download", results)
	}
	if !errors.Is(results[0].Err, staging.ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", results[0].Err)
	}
}

func TestAnnualWithoutLedger(t *testing.T) {
	ctx := context.Background()
	period := models.Period{Year: 2025, Month: 2}
	f := newFixture(t, false)

	monthly := tabular.New("FECHA", "CODIGO FRONTERA", "TOTAL CONSUMO")
	_ = monthly.Append([]string{"01-02-2025", "F1", "1.0"})
	data, err := tabular.Write(monthly)
	if err != nil {
		t.Fatal(err)
	}
	_ = f.store.Upload(ctx, layout.MonthFolder(period), "consumos_02_2025.csv", data)

	res := f.pipeline.Annual(ctx, period)
	if !res.Failed() || !errors.Is(res.Err, ledger.ErrLedgerNotFound) {
		t.Errorf("result = %+v, want ledger not found failure", res)
	}
}

func TestEmptyOutcomes(t *testing.T) {
	ctx := context.Background()
	period := models.Period{Year: 2025, Month: 3}
	f := newFixture(t, false)

	tests := []struct {
		name string
		run  func() StepResult
	}{
		{"download with nothing published", func() StepResult { return f.pipeline.Download(ctx, Target{Period: period, Current: true}) }},
		{"upload with nothing staged", func() StepResult { return f.pipeline.Upload(ctx, period) }},
		{"process empty folder", func() StepResult { return f.pipeline.Process(ctx, period) }},
		{"annual without monthly report", func() StepResult { return f.pipeline.Annual(ctx, period) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := tt.run(); res.Status != StatusEmpty {
				t.Errorf("status = %s (%s), want empty", res.Status, res.Message)
			}
		})
	}
}

func TestDownloadSkipsPreviousMonthWithFinals(t *testing.T) {
	ctx := context.Background()
	period := models.Period{Year: 2025, Month: 4}
	f := newFixture(t, false)
	f.publish(t, period)
	_ = f.store.Upload(ctx, layout.MonthFolder(period), "aenc0401.TxF", []byte("x"))

	if res := f.pipeline.Download(ctx, Target{Period: period}); res.Status != StatusEmpty {
		t.Errorf("previous month status = %s, want empty", res.Status)
	}
	if res := f.pipeline.Download(ctx, Target{Period: period, Current: true}); res.Status != StatusSuccess {
		t.Errorf("current month status = %s (%s), want success", res.Status, res.Message)
	}
}

func TestCycle(t *testing.T) {
	f := newFixture(t, false)
	f.pipeline.now = func() time.Time { return time.Date(2025, 5, 14, 12, 0, 0, 0, time.UTC) }

	got := f.pipeline.Cycle(time.UTC)
	want := []Target{
		{Period: models.Period{Year: 2025, Month: 4}},
		{Period: models.Period{Year: 2025, Month: 5}, Current: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Cycle = %+v, want %+v", got, want)
	}
}

func TestParseStep(t *testing.T) {
	for in, want := range map[string]Step{"1": StepDownload, "upload": StepUpload, "3": StepProcess, "annual": StepAnnual, "all": StepAll} {
		got, err := ParseStep(in)
		if err != nil || got != want {
			t.Errorf("ParseStep(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseStep("5"); err == nil {
		t.Errorf("expected error for unknown step")
	}
}
