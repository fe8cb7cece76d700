package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"feecc-workbench/internal/dto"
	"feecc-workbench/internal/model"
	"feecc-workbench/internal/repository"
	pkgerrors "feecc-workbench/pkg/errors"
)

// ── 产品模块业务错误 ──

var (
	ErrUnitOnWorkbench = fmt.Errorf("%w: 产品正在工位上加工", pkgerrors.ErrStateForbidden)
	ErrSchemaInvalid   = errors.New("生产方案不合法")
)

// SnapshotSource 提供工位当前快照
type SnapshotSource interface {
	Snapshot() *dto.WorkbenchSnapshot
}

// UnitService 产品与生产方案业务接口
type UnitService interface {
	GetUnit(ctx context.Context, internalID string) (*dto.UnitResponse, error)
	ListUnits(ctx context.Context, req *dto.UnitListRequest) ([]dto.UnitResponse, int64, error)
	// StartRevision 已完成的产品重新打开返修
	StartRevision(ctx context.Context, internalID string) (*dto.UnitResponse, error)
	// Finalize 已完成的产品归档
	Finalize(ctx context.Context, internalID string) (*dto.UnitResponse, error)

	ListSchemas(ctx context.Context) ([]dto.SchemaResponse, error)
	GetSchema(ctx context.Context, schemaID string) (*dto.SchemaResponse, error)
	UpsertSchema(ctx context.Context, req *dto.UpsertSchemaRequest) (*dto.SchemaResponse, error)
}

type unitService struct {
	repo   *repository.Repository
	bench  SnapshotSource
	logger *zap.Logger
}

// NewUnitService 创建 UnitService 实例；bench 用于拒绝修改工位上正在加工的产品
func NewUnitService(repo *repository.Repository, bench SnapshotSource, logger *zap.Logger) UnitService {
	return &unitService{repo: repo, bench: bench, logger: logger}
}

// ────────────────────── 产品 ──────────────────────

func (s *unitService) getUnit(ctx context.Context, internalID string) (*model.Unit, error) {
	unit, err := s.repo.Unit.GetByInternalID(ctx, internalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		s.logger.Error("查询产品失败", zap.String("internal_id", internalID), zap.Error(err))
		return nil, err
	}
	return unit, nil
}

func (s *unitService) GetUnit(ctx context.Context, internalID string) (*dto.UnitResponse, error) {
	unit, err := s.getUnit(ctx, internalID)
	if err != nil {
		return nil, err
	}
	return toUnitResponse(unit, time.Now()), nil
}

func (s *unitService) ListUnits(ctx context.Context, req *dto.UnitListRequest) ([]dto.UnitResponse, int64, error) {
	filters := &repository.UnitListFilters{
		Status:     req.Status,
		SchemaID:   req.SchemaID,
		WithStages: true,
	}
	units, total, err := s.repo.Unit.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出产品失败", zap.Error(err))
		return nil, 0, err
	}

	now := time.Now()
	result := make([]dto.UnitResponse, 0, len(units))
	for i := range units {
		result = append(result, *toUnitResponse(&units[i], now))
	}
	return result, total, nil
}

func (s *unitService) ensureNotOnBench(internalID string) error {
	if s.bench == nil {
		return nil
	}
	snap := s.bench.Snapshot()
	if snap != nil && snap.UnitInternalID != nil && *snap.UnitInternalID == internalID {
		return ErrUnitOnWorkbench
	}
	return nil
}

func (s *unitService) StartRevision(ctx context.Context, internalID string) (*dto.UnitResponse, error) {
	if err := s.ensureNotOnBench(internalID); err != nil {
		return nil, err
	}
	unit, err := s.getUnit(ctx, internalID)
	if err != nil {
		return nil, err
	}
	schema := unit.Schema
	if schema == nil {
		if schema, err = s.repo.Schema.GetByID(ctx, unit.SchemaID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSchemaNotFound
			}
			return nil, err
		}
	}

	if err := unit.StartRevision(schema); err != nil {
		return nil, err
	}
	if err := s.repo.Unit.Save(ctx, unit); err != nil {
		s.logger.Error("保存返修产品失败", zap.String("internal_id", internalID), zap.Error(err))
		return nil, persistenceError(err)
	}
	s.logger.Info("产品已进入返修", zap.String("internal_id", internalID))
	return toUnitResponse(unit, time.Now()), nil
}

func (s *unitService) Finalize(ctx context.Context, internalID string) (*dto.UnitResponse, error) {
	if err := s.ensureNotOnBench(internalID); err != nil {
		return nil, err
	}
	unit, err := s.getUnit(ctx, internalID)
	if err != nil {
		return nil, err
	}
	if err := unit.Finalize(); err != nil {
		return nil, err
	}
	if err := s.repo.Unit.Save(ctx, unit); err != nil {
		s.logger.Error("保存归档产品失败", zap.String("internal_id", internalID), zap.Error(err))
		return nil, persistenceError(err)
	}
	s.logger.Info("产品已归档", zap.String("internal_id", internalID))
	return toUnitResponse(unit, time.Now()), nil
}

// ────────────────────── 生产方案 ──────────────────────

func (s *unitService) ListSchemas(ctx context.Context) ([]dto.SchemaResponse, error) {
	schemas, err := s.repo.Schema.List(ctx)
	if err != nil {
		s.logger.Error("列出生产方案失败", zap.Error(err))
		return nil, err
	}
	return buildSchemaTree(schemas), nil
}

func (s *unitService) GetSchema(ctx context.Context, schemaID string) (*dto.SchemaResponse, error) {
	schema, err := s.repo.Schema.GetByID(ctx, schemaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSchemaNotFound
		}
		s.logger.Error("查询生产方案失败", zap.String("schema_id", schemaID), zap.Error(err))
		return nil, err
	}
	resp := toSchemaResponse(schema)
	return &resp, nil
}

func (s *unitService) UpsertSchema(ctx context.Context, req *dto.UpsertSchemaRequest) (*dto.SchemaResponse, error) {
	seen := make(map[string]bool, len(req.RequiredComponentsSchemaIDs))
	for _, id := range req.RequiredComponentsSchemaIDs {
		if id == req.SchemaID {
			return nil, fmt.Errorf("%w: 方案不能以自身为组件", ErrSchemaInvalid)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: 组件方案 %s 重复", ErrSchemaInvalid, id)
		}
		seen[id] = true
	}
	// 没有工序的产品永远无法完成生产
	if len(req.ProductionStages) == 0 {
		return nil, fmt.Errorf("%w: 方案至少需要一道工序", ErrSchemaInvalid)
	}
	stageIDs := make(map[string]bool, len(req.ProductionStages))
	for _, st := range req.ProductionStages {
		if stageIDs[st.StageID] {
			return nil, fmt.Errorf("%w: 工序 %s 重复", ErrSchemaInvalid, st.StageID)
		}
		stageIDs[st.StageID] = true
	}

	schema := &model.ProductionSchema{
		SchemaID:                    req.SchemaID,
		UnitName:                    req.UnitName,
		UnitShortName:               req.UnitShortName,
		ParentSchemaID:              req.ParentSchemaID,
		RequiredComponentsSchemaIDs: datatypes.JSONSlice[string](append([]string{}, req.RequiredComponentsSchemaIDs...)),
	}
	for _, st := range req.ProductionStages {
		schema.ProductionStages = append(schema.ProductionStages, model.SchemaStage{
			Name:        st.Name,
			StageID:     st.StageID,
			Description: st.Description,
		})
	}

	if err := s.repo.Schema.Upsert(ctx, schema); err != nil {
		s.logger.Error("保存生产方案失败", zap.String("schema_id", req.SchemaID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("生产方案已保存", zap.String("schema_id", req.SchemaID))
	resp := toSchemaResponse(schema)
	return &resp, nil
}
