package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"gorm.io/gorm"

	"feecc-workbench/internal/model"
	"feecc-workbench/internal/repository"
)

var errDBDown = errors.New("database is down")

// ── Mock UnitRepository ──

type mockUnitRepo struct {
	mu      sync.Mutex
	units   map[string]*model.Unit // key: internal_id
	saveErr error
	saves   int
}

func newMockUnitRepo() *mockUnitRepo {
	return &mockUnitRepo{units: make(map[string]*model.Unit)}
}

func (m *mockUnitRepo) put(u *model.Unit) {
	m.units[u.InternalID] = u.Clone()
}

func (m *mockUnitRepo) Save(_ context.Context, unit *model.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.putState(unit)
	return nil
}

func (m *mockUnitRepo) SaveAll(_ context.Context, units []*model.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	for _, u := range units {
		m.putState(u)
	}
	return nil
}

// putState 与 GORM 实现一致：不覆盖已有的证书发布字段
func (m *mockUnitRepo) putState(u *model.Unit) {
	next := u.Clone()
	next.Components = nil
	if prev, ok := m.units[u.InternalID]; ok {
		next.PassportCID = prev.PassportCID
		next.PassportLink = prev.PassportLink
		next.PassportShortURL = prev.PassportShortURL
		next.TxnHash = prev.TxnHash
		next.PublicationError = prev.PublicationError
	}
	m.units[u.InternalID] = next
}

func (m *mockUnitRepo) GetByInternalID(_ context.Context, internalID string) (*model.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.units[internalID]; ok {
		return m.withComponents(u), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnitRepo) GetByUUID(_ context.Context, uuid string) (*model.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.units {
		if u.UUID == uuid {
			return m.withComponents(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnitRepo) withComponents(u *model.Unit) *model.Unit {
	out := u.Clone()
	for _, sid := range out.ComponentSlots.SchemaIDs() {
		if c, ok := m.units[out.ComponentSlots[sid]]; ok {
			out.Components = append(out.Components, c.Clone())
		}
	}
	return out
}

func (m *mockUnitRepo) List(_ context.Context, filters *repository.UnitListFilters, offset, limit int) ([]model.Unit, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Unit
	for _, u := range m.units {
		if filters != nil && filters.Status != "" && string(u.Status) != filters.Status {
			continue
		}
		if filters != nil && filters.SchemaID != "" && u.SchemaID != filters.SchemaID {
			continue
		}
		result = append(result, *u.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].InternalID < result[j].InternalID })
	total := int64(len(result))
	if offset >= len(result) {
		return []model.Unit{}, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockUnitRepo) UpdatePublication(_ context.Context, uuid string, fields *repository.PublicationFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.units {
		if u.UUID != uuid {
			continue
		}
		if fields.PassportCID != nil {
			u.PassportCID = fields.PassportCID
		}
		if fields.PassportLink != nil {
			u.PassportLink = fields.PassportLink
		}
		if fields.PassportShortURL != nil {
			u.PassportShortURL = fields.PassportShortURL
		}
		if fields.TxnHash != nil {
			u.TxnHash = fields.TxnHash
		}
		if fields.PublicationError != nil {
			u.PublicationError = fields.PublicationError
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockUnitRepo) get(internalID string) *model.Unit {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.units[internalID]; ok {
		return u.Clone()
	}
	return nil
}

func (m *mockUnitRepo) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// ── Mock StageRepository ──

type mockStageRepo struct {
	stages map[string]*model.ProductionStage
}

func newMockStageRepo() *mockStageRepo {
	return &mockStageRepo{stages: make(map[string]*model.ProductionStage)}
}

func (m *mockStageRepo) Upsert(_ context.Context, stage *model.ProductionStage) error {
	m.stages[stage.StageID] = stage
	return nil
}

func (m *mockStageRepo) ListByUnit(_ context.Context, unitUUID string) ([]model.ProductionStage, error) {
	var result []model.ProductionStage
	for _, st := range m.stages {
		if st.UnitUUID == unitUUID {
			result = append(result, *st)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

// ── Mock SchemaRepository ──

type mockSchemaRepo struct {
	schemas map[string]*model.ProductionSchema
}

func newMockSchemaRepo() *mockSchemaRepo {
	return &mockSchemaRepo{schemas: make(map[string]*model.ProductionSchema)}
}

func (m *mockSchemaRepo) GetByID(_ context.Context, schemaID string) (*model.ProductionSchema, error) {
	if s, ok := m.schemas[schemaID]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSchemaRepo) List(_ context.Context) ([]model.ProductionSchema, error) {
	var result []model.ProductionSchema
	for _, s := range m.schemas {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SchemaID < result[j].SchemaID })
	return result, nil
}

func (m *mockSchemaRepo) Upsert(_ context.Context, schema *model.ProductionSchema) error {
	m.schemas[schema.SchemaID] = schema
	return nil
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	employees map[string]*model.Employee
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{employees: make(map[string]*model.Employee)}
}

func (m *mockEmployeeRepo) GetByCardID(_ context.Context, cardID string) (*model.Employee, error) {
	if e, ok := m.employees[cardID]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) Upsert(_ context.Context, employee *model.Employee) error {
	m.employees[employee.CardID] = employee
	return nil
}

// ── 测试数据 ──

type mockRepos struct {
	units     *mockUnitRepo
	stages    *mockStageRepo
	schemas   *mockSchemaRepo
	employees *mockEmployeeRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		units:     newMockUnitRepo(),
		stages:    newMockStageRepo(),
		schemas:   newMockSchemaRepo(),
		employees: newMockEmployeeRepo(),
	}
	repo := &repository.Repository{
		Unit:     m.units,
		Stage:    m.stages,
		Schema:   m.schemas,
		Employee: m.employees,
	}
	return repo, m
}

func strPtr(s string) *string { return &s }

// seedSchemas 写入测试用方案：单件产品 widget、组件 board/case 与组合产品 kit
func (m *mockRepos) seedSchemas() {
	m.schemas.schemas["widget"] = &model.ProductionSchema{
		SchemaID: "widget",
		UnitName: "Widget",
		ProductionStages: []model.SchemaStage{
			{Name: "Soldering", StageID: "s1"},
			{Name: "Testing", StageID: "s2"},
		},
	}
	m.schemas.schemas["board"] = &model.ProductionSchema{
		SchemaID:         "board",
		UnitName:         "Board",
		ParentSchemaID:   strPtr("kit"),
		ProductionStages: []model.SchemaStage{{Name: "Assembly", StageID: "b1"}},
	}
	m.schemas.schemas["case"] = &model.ProductionSchema{
		SchemaID:         "case",
		UnitName:         "Case",
		ParentSchemaID:   strPtr("kit"),
		ProductionStages: []model.SchemaStage{{Name: "Molding", StageID: "c1"}},
	}
	m.schemas.schemas["kit"] = &model.ProductionSchema{
		SchemaID:                    "kit",
		UnitName:                    "Kit",
		UnitShortName:               strPtr("KIT"),
		ProductionStages:            []model.SchemaStage{{Name: "Packing", StageID: "k1"}},
		RequiredComponentsSchemaIDs: []string{"board", "case"},
	}
}

func (m *mockRepos) seedEmployee(cardID, name string) *model.Employee {
	e := &model.Employee{CardID: cardID, Name: name, Position: "Assembler"}
	m.employees.employees[cardID] = e
	return e
}
