package repositories

import (
	"context"
	"errors"

	"certgen/internal/database"
	"certgen/internal/logger"
	. "certgen/internal/models"

	"gorm.io/gorm"
)

const recentRunsLimit = 20

type GenerationRunRepository interface {
	GetByID(ctx context.Context, id string) (*GenerationRun, error)
	Create(ctx context.Context, run *GenerationRun) error
	Update(ctx context.Context, run *GenerationRun) error
	AddSkippedRows(ctx context.Context, runID string, rows []MalformedRow) error
	GetRecent(ctx context.Context) ([]*GenerationRun, error)
}

type generationRunRepository struct {
	db  database.DB
	log logger.Logger
}

func NewGenerationRun(db database.DB) GenerationRunRepository {
	return &generationRunRepository{
		db:  db,
		log: logger.New("generationRunRepository"),
	}
}

func (r *generationRunRepository) getDB(ctx context.Context) *gorm.DB {
	return r.db.SQLWithContext(ctx)
}

func (r *generationRunRepository) GetByID(ctx context.Context, id string) (*GenerationRun, error) {
	log := r.log.Function("GetByID")

	var run GenerationRun
	err := r.getDB(ctx).
		Preload("SkippedRows", func(db *gorm.DB) *gorm.DB { return db.Order("row_number ASC") }).
		First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, log.Err("failed to get generation run by id", err, "id", id)
	}

	return &run, nil
}

func (r *generationRunRepository) Create(ctx context.Context, run *GenerationRun) error {
	log := r.log.Function("Create")

	if err := r.getDB(ctx).Create(run).Error; err != nil {
		return log.Err("failed to create generation run", err, "run", run)
	}

	return nil
}

func (r *generationRunRepository) Update(ctx context.Context, run *GenerationRun) error {
	log := r.log.Function("Update")

	if err := r.getDB(ctx).Omit("SkippedRows").Save(run).Error; err != nil {
		return log.Err("failed to update generation run", err, "runId", run.ID)
	}

	return nil
}

func (r *generationRunRepository) AddSkippedRows(ctx context.Context, runID string, rows []MalformedRow) error {
	log := r.log.Function("AddSkippedRows")

	if len(rows) == 0 {
		return nil
	}

	skipped := make([]SkippedRow, 0, len(rows))
	for _, row := range rows {
		skipped = append(skipped, SkippedRow{
			RunID:     runID,
			RowNumber: row.RowNumber,
			Raw:       FormatRawRow(row.Raw),
		})
	}

	if err := r.getDB(ctx).CreateInBatches(skipped, 100).Error; err != nil {
		return log.Err("failed to store skipped rows", err, "runId", runID, "count", len(rows))
	}

	return nil
}

func (r *generationRunRepository) GetRecent(ctx context.Context) ([]*GenerationRun, error) {
	log := r.log.Function("GetRecent")

	var runs []*GenerationRun
	if err := r.getDB(ctx).Order("created_at DESC").Limit(recentRunsLimit).Find(&runs).Error; err != nil {
		return nil, log.Err("failed to get recent generation runs", err)
	}

	return runs, nil
}
