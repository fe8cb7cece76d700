package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"feecc-workbench/internal/model"
)

// maxComponentDepth 组件递归加载的最大层数
const maxComponentDepth = 8

// UnitListFilters 产品列表筛选条件
type UnitListFilters struct {
	Status     string
	SchemaID   string
	WithStages bool
}

// PublicationFields 证书发布结果；仅非 nil 字段会被写入
type PublicationFields struct {
	PassportCID      *string
	PassportLink     *string
	PassportShortURL *string
	TxnHash          *string
	PublicationError *string
}

// UnitRepository 产品数据访问接口
type UnitRepository interface {
	// Save 在一个事务内按自然键写入产品及其全部工序，重复写入同一内容不会产生新行
	Save(ctx context.Context, unit *model.Unit) error
	// SaveAll 在一个事务内写入多个产品（组合产品与其组件）
	SaveAll(ctx context.Context, units []*model.Unit) error
	GetByInternalID(ctx context.Context, internalID string) (*model.Unit, error)
	GetByUUID(ctx context.Context, uuid string) (*model.Unit, error)
	List(ctx context.Context, filters *UnitListFilters, offset, limit int) ([]model.Unit, int64, error)
	UpdatePublication(ctx context.Context, uuid string, fields *PublicationFields) error
}

// unitRepo UnitRepository 的 GORM 实现
type unitRepo struct {
	db *gorm.DB
}

// NewUnitRepo 创建 UnitRepository 实例
func NewUnitRepo(db *gorm.DB) UnitRepository {
	return &unitRepo{db: db}
}

// unitStateColumns 由 Save 覆盖的列；证书发布相关列只通过 UpdatePublication 写入
var unitStateColumns = []string{
	"status", "featured_in", "component_slots", "serial_number", "updated_at",
}

func (r *unitRepo) Save(ctx context.Context, unit *model.Unit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveUnit(tx, unit)
	})
}

func (r *unitRepo) SaveAll(ctx context.Context, units []*model.Unit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range units {
			if err := saveUnit(tx, u); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveUnit(tx *gorm.DB, unit *model.Unit) error {
	unit.UpdatedAt = time.Now()
	err := tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uuid"}},
			DoUpdates: clause.AssignmentColumns(unitStateColumns),
		}).
		Create(unit).Error
	if err != nil {
		return fmt.Errorf("写入产品 %s 失败: %w", unit.InternalID, err)
	}
	if len(unit.Stages) == 0 {
		return nil
	}
	if err := upsertStages(tx, unit.Stages); err != nil {
		return fmt.Errorf("写入产品 %s 工序失败: %w", unit.InternalID, err)
	}
	return nil
}

func (r *unitRepo) GetByInternalID(ctx context.Context, internalID string) (*model.Unit, error) {
	return r.get(ctx, "internal_id = ?", internalID)
}

func (r *unitRepo) GetByUUID(ctx context.Context, uuid string) (*model.Unit, error) {
	return r.get(ctx, "uuid = ?", uuid)
}

func (r *unitRepo) get(ctx context.Context, query string, arg string) (*model.Unit, error) {
	db := r.db.WithContext(ctx)
	var unit model.Unit
	err := withDetails(db).Where(query, arg).First(&unit).Error
	if err != nil {
		return nil, err
	}
	if err := loadComponents(db, &unit, maxComponentDepth); err != nil {
		return nil, err
	}
	return &unit, nil
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		}).
		Preload("Schema")
}

// loadComponents 按槽位递归加载组件
func loadComponents(db *gorm.DB, unit *model.Unit, depth int) error {
	if depth <= 0 || !unit.IsComposite() {
		return nil
	}
	unit.Components = nil
	for _, schemaID := range unit.ComponentSlots.SchemaIDs() {
		internalID := unit.ComponentSlots[schemaID]
		if internalID == "" {
			continue
		}
		var component model.Unit
		err := withDetails(db).Where("internal_id = ?", internalID).First(&component).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("组件 %s 不存在: %w", internalID, err)
			}
			return err
		}
		if err := loadComponents(db, &component, depth-1); err != nil {
			return err
		}
		unit.Components = append(unit.Components, &component)
	}
	return nil
}

func (r *unitRepo) List(ctx context.Context, filters *UnitListFilters, offset, limit int) ([]model.Unit, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Unit{})

	if filters != nil {
		if filters.Status != "" {
			query = query.Where("status = ?", filters.Status)
		}
		if filters.SchemaID != "" {
			query = query.Where("schema_id = ?", filters.SchemaID)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters != nil && filters.WithStages {
		query = withDetails(query)
	}

	var units []model.Unit
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&units).Error
	return units, total, err
}

func (r *unitRepo) UpdatePublication(ctx context.Context, uuid string, fields *PublicationFields) error {
	updates := map[string]interface{}{}
	if fields.PassportCID != nil {
		updates["passport_cid"] = *fields.PassportCID
	}
	if fields.PassportLink != nil {
		updates["passport_link"] = *fields.PassportLink
	}
	if fields.PassportShortURL != nil {
		updates["passport_short_url"] = *fields.PassportShortURL
	}
	if fields.TxnHash != nil {
		updates["txn_hash"] = *fields.TxnHash
	}
	if fields.PublicationError != nil {
		updates["publication_error"] = *fields.PublicationError
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&model.Unit{}).
		Where("uuid = ?", uuid).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
