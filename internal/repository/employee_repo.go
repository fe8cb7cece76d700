package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"feecc-workbench/internal/model"
)

// EmployeeRepository 员工数据访问接口
type EmployeeRepository interface {
	GetByCardID(ctx context.Context, cardID string) (*model.Employee, error)
	Upsert(ctx context.Context, employee *model.Employee) error
}

// employeeRepo EmployeeRepository 的 GORM 实现
type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo 创建 EmployeeRepository 实例
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) GetByCardID(ctx context.Context, cardID string) (*model.Employee, error) {
	var employee model.Employee
	err := r.db.WithContext(ctx).
		Where("card_id = ?", cardID).
		First(&employee).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepo) Upsert(ctx context.Context, employee *model.Employee) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "card_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "position", "updated_at"}),
		}).
		Create(employee).Error
}
