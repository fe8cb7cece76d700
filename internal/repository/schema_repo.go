package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"feecc-workbench/internal/model"
)

// SchemaRepository 生产方案数据访问接口
type SchemaRepository interface {
	GetByID(ctx context.Context, schemaID string) (*model.ProductionSchema, error)
	List(ctx context.Context) ([]model.ProductionSchema, error)
	Upsert(ctx context.Context, schema *model.ProductionSchema) error
}

// schemaRepo SchemaRepository 的 GORM 实现
type schemaRepo struct {
	db *gorm.DB
}

// NewSchemaRepo 创建 SchemaRepository 实例
func NewSchemaRepo(db *gorm.DB) SchemaRepository {
	return &schemaRepo{db: db}
}

func (r *schemaRepo) GetByID(ctx context.Context, schemaID string) (*model.ProductionSchema, error) {
	var schema model.ProductionSchema
	err := r.db.WithContext(ctx).
		Where("schema_id = ?", schemaID).
		First(&schema).Error
	if err != nil {
		return nil, err
	}
	return &schema, nil
}

func (r *schemaRepo) List(ctx context.Context) ([]model.ProductionSchema, error) {
	var schemas []model.ProductionSchema
	err := r.db.WithContext(ctx).
		Order("unit_name ASC").
		Find(&schemas).Error
	return schemas, err
}

func (r *schemaRepo) Upsert(ctx context.Context, schema *model.ProductionSchema) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "schema_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"unit_name", "unit_short_name", "parent_schema_id",
				"production_stages", "required_components_schema_ids", "updated_at",
			}),
		}).
		Create(schema).Error
}
