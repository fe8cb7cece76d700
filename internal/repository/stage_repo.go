package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"feecc-workbench/internal/model"
)

// StageRepository 工序数据访问接口
type StageRepository interface {
	Upsert(ctx context.Context, stage *model.ProductionStage) error
	ListByUnit(ctx context.Context, unitUUID string) ([]model.ProductionStage, error)
}

// stageRepo StageRepository 的 GORM 实现
type stageRepo struct {
	db *gorm.DB
}

// NewStageRepo 创建 StageRepository 实例
func NewStageRepo(db *gorm.DB) StageRepository {
	return &stageRepo{db: db}
}

// stageColumns 按 stage_id 冲突时覆盖的列
var stageColumns = []string{
	"name", "number", "employee_code", "start_time", "end_time",
	"ended_prematurely", "completed", "video_hashes", "extra_data",
}

func upsertStages(tx *gorm.DB, stages []model.ProductionStage) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stage_id"}},
		DoUpdates: clause.AssignmentColumns(stageColumns),
	}).Create(&stages).Error
}

func (r *stageRepo) Upsert(ctx context.Context, stage *model.ProductionStage) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stage_id"}},
			DoUpdates: clause.AssignmentColumns(stageColumns),
		}).
		Create(stage).Error
}

func (r *stageRepo) ListByUnit(ctx context.Context, unitUUID string) ([]model.ProductionStage, error) {
	var stages []model.ProductionStage
	err := r.db.WithContext(ctx).
		Where("unit_uuid = ?", unitUUID).
		Order("number ASC").
		Find(&stages).Error
	return stages, err
}
