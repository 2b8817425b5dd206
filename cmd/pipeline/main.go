package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "time/tzdata"

	"github.com/sirupsen/logrus"

	"github.com/ruitoque/fronteras/configs"
	"github.com/ruitoque/fronteras/internal/app"
	"github.com/ruitoque/fronteras/internal/pipeline"
	"github.com/ruitoque/fronteras/internal/progress"
)

func main() {
	stepFlag := flag.String("step", "all", "Step to run: download|upload|process|annual|all (or 1-4)")
	year := flag.Int("year", 0, "Year of an explicit period (default: previous and current month)")
	month := flag.Int("month", 0, "Month of an explicit period")
	flag.Parse()

	cfg := configs.AppLoad()
	logger := configs.NewLogger(cfg.LogLevel)

	step, err := pipeline.ParseStep(*stepFlag)
	if err != nil {
		logger.WithError(err).Fatal("invalid -step")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger, progress.LogReporter{Logger: logger})
	if err != nil {
		logger.WithError(err).Fatal("failed to assemble pipeline")
	}
	defer a.Close()

	targets, err := a.Targets(*year, *month)
	if err != nil {
		logger.WithError(err).Fatal("invalid period")
	}

	failed := false
	for _, res := range a.Pipeline.Run(ctx, step, targets) {
		entry := logger.WithFields(logrus.Fields{
			"step":   res.Step,
			"period": res.Period,
			"status": res.Status,
			"files":  len(res.Files),
		})
		if res.Failed() {
			failed = true
			entry.Error(res.Message)
			continue
		}
		entry.Info(res.Message)
	}
	if failed {
		a.Close()
		os.Exit(1)
	}
}
