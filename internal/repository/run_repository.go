// Package repository persists pipeline run history.
package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ruitoque/fronteras/internal/models"
)

type RunRepository interface {
	Record(ctx context.Context, run *models.Run) error
	Latest(ctx context.Context, limit int) ([]models.Run, error)
	LatestByPeriod(ctx context.Context, period string, limit int) ([]models.Run, error)
}

type gormRunRepository struct {
	db *gorm.DB
}

func NewGormRunRepository(db *gorm.DB) RunRepository {
	return &gormRunRepository{db: db}
}

func (r *gormRunRepository) Record(ctx context.Context, run *models.Run) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

func (r *gormRunRepository) Latest(ctx context.Context, limit int) ([]models.Run, error) {
	var runs []models.Run
	err := r.db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("latest runs: %w", err)
	}
	return runs, nil
}

func (r *gormRunRepository) LatestByPeriod(ctx context.Context, period string, limit int) ([]models.Run, error) {
	var runs []models.Run
	err := r.db.WithContext(ctx).
		Where("period = ?", period).
		Order("started_at desc").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("runs of %s: %w", period, err)
	}
	return runs, nil
}
