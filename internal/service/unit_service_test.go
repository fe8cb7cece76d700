package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"feecc-workbench/internal/dto"
	"feecc-workbench/internal/model"
	pkgerrors "feecc-workbench/pkg/errors"
)

type staticSnapshot struct{ snap *dto.WorkbenchSnapshot }

func (s staticSnapshot) Snapshot() *dto.WorkbenchSnapshot { return s.snap }

func setupTestUnitService(t *testing.T, onBench string) (UnitService, *benchFixture) {
	t.Helper()
	f := newBenchFixture(t, Collaborators{})
	repo, _ := newMockRepos()
	repo.Unit = f.repos.units
	repo.Schema = f.repos.schemas
	snap := &dto.WorkbenchSnapshot{}
	if onBench != "" {
		snap.UnitInternalID = &onBench
	}
	return NewUnitService(repo, staticSnapshot{snap}, zap.NewNop()), f
}

// ── 产品 ──

func TestUnitService_GetUnit(t *testing.T) {
	svc, f := setupTestUnitService(t, "")
	u := f.seedUnit(t, "widget", false)

	resp, err := svc.GetUnit(context.Background(), u.InternalID)
	if err != nil {
		t.Fatalf("查询产品失败: %v", err)
	}
	if resp.UnitName != "Widget" || len(resp.Biography) != 2 {
		t.Errorf("期望 Widget 且 2 道工序，实际 %s / %d", resp.UnitName, len(resp.Biography))
	}

	if _, err := svc.GetUnit(context.Background(), "0000000000000"); !errors.Is(err, ErrUnitNotFound) {
		t.Errorf("期望 ErrUnitNotFound，实际: %v", err)
	}
}

func TestUnitService_ListUnits_Filters(t *testing.T) {
	svc, f := setupTestUnitService(t, "")
	f.seedUnit(t, "widget", false)
	f.seedUnit(t, "widget", true)
	f.seedUnit(t, "board", true)

	req := &dto.UnitListRequest{Status: "built"}
	units, total, err := svc.ListUnits(context.Background(), req)
	if err != nil {
		t.Fatalf("列出产品失败: %v", err)
	}
	if total != 2 || len(units) != 2 {
		t.Errorf("期望 2 个 built 产品，实际 %d", total)
	}

	req = &dto.UnitListRequest{SchemaID: "widget"}
	req.PageSize = 1
	units, total, _ = svc.ListUnits(context.Background(), req)
	if total != 2 || len(units) != 1 {
		t.Errorf("期望总数 2、本页 1，实际 %d / %d", total, len(units))
	}
}

func TestUnitService_RevisionAndFinalize(t *testing.T) {
	ctx := context.Background()
	svc, f := setupTestUnitService(t, "")
	u := f.seedUnit(t, "widget", true)

	resp, err := svc.StartRevision(ctx, u.InternalID)
	if err != nil {
		t.Fatalf("返修失败: %v", err)
	}
	if resp.Status != string(model.UnitStatusRevision) || len(resp.Biography) != 4 {
		t.Errorf("返修应追加一轮工序，实际 %s / %d", resp.Status, len(resp.Biography))
	}
	if resp.Biography[2].Number != 2 || resp.Biography[2].Completed {
		t.Error("追加的工序应从序号 2 开始且未完成")
	}

	if _, err := svc.Finalize(ctx, u.InternalID); !errors.Is(err, model.ErrInvalidUnitStatus) {
		t.Errorf("返修中的产品不能归档，实际: %v", err)
	}

	done := f.seedUnit(t, "widget", true)
	resp, err = svc.Finalize(ctx, done.InternalID)
	if err != nil || resp.Status != string(model.UnitStatusFinalized) {
		t.Fatalf("归档失败: %v", err)
	}
	if _, err := svc.StartRevision(ctx, done.InternalID); !errors.Is(err, pkgerrors.ErrStateForbidden) {
		t.Errorf("已归档产品不能返修，实际: %v", err)
	}
}

func TestUnitService_RejectsUnitOnWorkbench(t *testing.T) {
	f := newBenchFixture(t, Collaborators{})
	u := f.seedUnit(t, "widget", true)
	svc, _ := setupTestUnitService(t, u.InternalID)

	if _, err := svc.Finalize(context.Background(), u.InternalID); !errors.Is(err, ErrUnitOnWorkbench) {
		t.Errorf("期望 ErrUnitOnWorkbench，实际: %v", err)
	}
}

// ── 生产方案 ──

func TestUnitService_ListSchemas_Tree(t *testing.T) {
	svc, _ := setupTestUnitService(t, "")

	schemas, err := svc.ListSchemas(context.Background())
	if err != nil {
		t.Fatalf("列出方案失败: %v", err)
	}
	// kit（含 board、case）+ widget
	if len(schemas) != 2 {
		t.Fatalf("期望 2 个顶层方案，实际 %d", len(schemas))
	}
	if schemas[0].SchemaID != "kit" || len(schemas[0].Components) != 2 {
		t.Errorf("组合方案应排在最前并嵌套组件，实际 %+v", schemas[0])
	}
}

func TestUnitService_UpsertSchema(t *testing.T) {
	svc, _ := setupTestUnitService(t, "")
	ctx := context.Background()

	_, err := svc.UpsertSchema(ctx, &dto.UpsertSchemaRequest{
		SchemaID:                    "loop",
		UnitName:                    "Loop",
		RequiredComponentsSchemaIDs: []string{"loop"},
	})
	if !errors.Is(err, ErrSchemaInvalid) {
		t.Errorf("自引用方案期望 ErrSchemaInvalid，实际: %v", err)
	}

	_, err = svc.UpsertSchema(ctx, &dto.UpsertSchemaRequest{
		SchemaID:                    "bare",
		UnitName:                    "Bare",
		RequiredComponentsSchemaIDs: []string{"board"},
	})
	if !errors.Is(err, ErrSchemaInvalid) {
		t.Errorf("无工序方案期望 ErrSchemaInvalid，实际: %v", err)
	}
	if _, err := svc.GetSchema(ctx, "bare"); !errors.Is(err, ErrSchemaNotFound) {
		t.Errorf("被拒绝的方案不应保存，实际: %v", err)
	}

	_, err = svc.UpsertSchema(ctx, &dto.UpsertSchemaRequest{
		SchemaID: "dup",
		UnitName: "Dup",
		ProductionStages: []dto.SchemaStageRequest{
			{Name: "A", StageID: "x"},
			{Name: "B", StageID: "x"},
		},
	})
	if !errors.Is(err, ErrSchemaInvalid) {
		t.Errorf("重复工序期望 ErrSchemaInvalid，实际: %v", err)
	}

	resp, err := svc.UpsertSchema(ctx, &dto.UpsertSchemaRequest{
		SchemaID:         "lamp",
		UnitName:         "Lamp",
		ProductionStages: []dto.SchemaStageRequest{{Name: "Wiring", StageID: "l1"}},
	})
	if err != nil {
		t.Fatalf("保存方案失败: %v", err)
	}
	if resp.IsComposite || len(resp.ProductionStages) != 1 {
		t.Errorf("期望非组合方案且 1 道工序，实际 %+v", resp)
	}
	if _, err := svc.GetSchema(ctx, "lamp"); err != nil {
		t.Errorf("保存后应可查询: %v", err)
	}
}

// ── 员工 ──

func TestEmployeeService(t *testing.T) {
	repo, _ := newMockRepos()
	svc := NewEmployeeService(repo, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.GetByCardID(ctx, "nope"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("期望 ErrEmployeeNotFound，实际: %v", err)
	}
	resp, err := svc.Upsert(ctx, &dto.UpsertEmployeeRequest{CardID: "c1", Name: "Eve", Position: "QA"})
	if err != nil {
		t.Fatalf("保存员工失败: %v", err)
	}
	want := (&model.Employee{CardID: "c1", Name: "Eve", Position: "QA"}).PassportCode()
	if resp.PassportCode != want {
		t.Errorf("期望证书编码 %s，实际 %s", want, resp.PassportCode)
	}
}

// ── 导出 ──

func TestExportService_ExportUnits(t *testing.T) {
	f := newBenchFixture(t, Collaborators{})
	repo, _ := newMockRepos()
	repo.Unit = f.repos.units
	svc := NewExportService(repo, zap.NewNop())
	ctx := context.Background()

	if _, _, err := svc.ExportUnits(ctx, "", ""); !errors.Is(err, ErrExportNoUnits) {
		t.Fatalf("期望 ErrExportNoUnits，实际: %v", err)
	}

	u := f.seedUnit(t, "widget", true)
	f.seedUnit(t, "board", false)

	buf, filename, err := svc.ExportUnits(ctx, "built", "")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if filename == "" {
		t.Error("文件名不应为空")
	}

	xf, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("无法解析导出文件: %v", err)
	}
	defer xf.Close()

	rows, err := xf.GetRows("产品")
	if err != nil {
		t.Fatalf("读取产品表失败: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != u.InternalID {
		t.Errorf("期望表头 + 1 行 built 产品，实际 %d 行", len(rows))
	}
	stageRows, _ := xf.GetRows("工序")
	if len(stageRows) != 3 {
		t.Errorf("期望表头 + 2 道工序，实际 %d 行", len(stageRows))
	}
}
