package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"feecc-workbench/internal/dto"
	"feecc-workbench/internal/model"
	"feecc-workbench/internal/repository"
)

// EmployeeService 员工业务接口
type EmployeeService interface {
	GetByCardID(ctx context.Context, cardID string) (*dto.EmployeeResponse, error)
	Upsert(ctx context.Context, req *dto.UpsertEmployeeRequest) (*dto.EmployeeResponse, error)
}

type employeeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEmployeeService 创建 EmployeeService 实例
func NewEmployeeService(repo *repository.Repository, logger *zap.Logger) EmployeeService {
	return &employeeService{repo: repo, logger: logger}
}

func (s *employeeService) GetByCardID(ctx context.Context, cardID string) (*dto.EmployeeResponse, error) {
	emp, err := s.repo.Employee.GetByCardID(ctx, cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, err
	}
	return toEmployeeResponse(emp), nil
}

func (s *employeeService) Upsert(ctx context.Context, req *dto.UpsertEmployeeRequest) (*dto.EmployeeResponse, error) {
	emp := &model.Employee{
		CardID:   req.CardID,
		Name:     req.Name,
		Position: req.Position,
	}
	if err := s.repo.Employee.Upsert(ctx, emp); err != nil {
		s.logger.Error("保存员工失败", zap.Error(err))
		return nil, err
	}
	return toEmployeeResponse(emp), nil
}
