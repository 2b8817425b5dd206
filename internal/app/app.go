// Package app assembles the pipeline and its backends from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/clickhouse"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ruitoque/fronteras/configs"
	"github.com/ruitoque/fronteras/internal/calendar"
	"github.com/ruitoque/fronteras/internal/drivers/localfs"
	"github.com/ruitoque/fronteras/internal/drivers/sharepoint"
	"github.com/ruitoque/fronteras/internal/drivers/xmftp"
	"github.com/ruitoque/fronteras/internal/events"
	"github.com/ruitoque/fronteras/internal/inventory"
	"github.com/ruitoque/fronteras/internal/models"
	"github.com/ruitoque/fronteras/internal/pipeline"
	"github.com/ruitoque/fronteras/internal/processor"
	"github.com/ruitoque/fronteras/internal/progress"
	"github.com/ruitoque/fronteras/internal/repository"
	"github.com/ruitoque/fronteras/internal/staging"
	"github.com/ruitoque/fronteras/utils"
)

// App holds a wired pipeline and the resources it owns.
type App struct {
	Pipeline *pipeline.Pipeline
	Store    inventory.Store
	Runs     repository.RunRepository
	Location *time.Location

	closers []func() error
}

// New wires every backend selected by cfg. Run history falls back to an
// in-memory repository when disabled.
func New(ctx context.Context, cfg *configs.AppConfig, logger *logrus.Logger, reporter progress.Reporter) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := utils.LoadZone(cfg.Pipeline.Timezone)
	if err != nil {
		return nil, err
	}

	tables := processor.DefaultTables()
	if cfg.Pipeline.TablesFile != "" {
		if tables, err = processor.LoadTables(cfg.Pipeline.TablesFile); err != nil {
			return nil, err
		}
	}
	extra, err := calendar.NewFixed(tables.Holidays...)
	if err != nil {
		return nil, err
	}
	holidays := calendar.Any{calendar.NewColombia(), extra}

	a := &App{Location: loc}
	a.Store = newStore(ctx, cfg, logger)

	if cfg.RunHistory.Enabled {
		db, err := gorm.Open(clickhouse.Open(cfg.RunHistory.DSN), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
		a.closers = append(a.closers, sqlDB.Close)
		a.Runs = repository.NewGormRunRepository(db)
	} else {
		a.Runs = repository.NewMemoryRunRepository()
	}

	var publisher pipeline.Publisher
	if cfg.Events.Broker != "" {
		producer, err := events.NewProducer(cfg.Events.Broker)
		if err != nil {
			return nil, err
		}
		p := events.NewPublisher(producer, cfg.Events.Topic)
		a.closers = append(a.closers, p.Close)
		publisher = p
	}

	source := xmftp.New(xmftp.Config{
		Host:     cfg.FTP.Host,
		Port:     cfg.FTP.Port,
		User:     cfg.FTP.User,
		Password: cfg.FTP.Password,
		BaseDir:  cfg.FTP.BaseDir,
		Timeout:  cfg.FTP.Timeout,
	}, logger)

	a.Pipeline = pipeline.New(pipeline.Options{
		Source: source,
		Store:  a.Store,
		Layout: inventory.Layout{
			MonthRoot:    cfg.SharePoint.MonthRoot,
			LedgerFolder: cfg.SharePoint.LedgerFolder,
		},
		Staging:   staging.Area{Root: cfg.Pipeline.StagingDir},
		Builder:   processor.NewBuilder(tables, holidays),
		Bootstrap: cfg.Pipeline.LedgerBootstrap,
		Reporter:  reporter,
		Recorder:  a.Runs,
		Publisher: publisher,
		Logger:    logger,
	})

	logger.WithFields(logrus.Fields{
		"store":       cfg.DocStore,
		"run_history": cfg.RunHistory.Enabled,
		"events":      publisher != nil,
		"holidays":    extra.Len(),
	}).Info("pipeline assembled")
	return a, nil
}

func newStore(ctx context.Context, cfg *configs.AppConfig, logger *logrus.Logger) inventory.Store {
	if cfg.DocStore == configs.StoreLocal {
		return localfs.New(cfg.LocalStoreDir)
	}
	httpClient := sharepoint.NewHTTPClient(ctx, sharepoint.Credentials{
		TenantID:     cfg.Azure.TenantID,
		ClientID:     cfg.Azure.ClientID,
		ClientSecret: cfg.Azure.ClientSecret,
	})
	return sharepoint.New(sharepoint.Config{
		Host:              cfg.SharePoint.Host,
		Site:              cfg.SharePoint.Site,
		RequestsPerSecond: cfg.SharePoint.RequestsPerSecond,
	}, httpClient, logger)
}

// Targets returns the explicit month when year and month are set, otherwise
// the previous and current month.
func (a *App) Targets(year, month int) ([]pipeline.Target, error) {
	if year == 0 && month == 0 {
		return a.Pipeline.Cycle(a.Location), nil
	}
	period, err := models.NewPeriod(year, month)
	if err != nil {
		return nil, err
	}
	return pipeline.Explicit(period), nil
}

// Close releases the run history and event connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
