package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"feecc-workbench/internal/model"
	"feecc-workbench/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoUnits      = errors.New("没有符合条件的产品")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// exportLimit 单次导出的产品上限
const exportLimit = 5000

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportUnits 导出产品及其工序履历为 Excel
	ExportUnits(ctx context.Context, status, schemaID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportUnits — 导出产品履历
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "产品"：每行一个产品，含状态、组件、证书发布结果
//   - Sheet "工序"：每行一道工序，按产品、序号排列
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

var (
	unitHeaders  = []string{"条码", "UUID", "生产方案", "产品名称", "状态", "所属产品", "组件", "总装配时长", "证书 CID", "证书短链", "交易哈希", "发布错误", "创建时间"}
	stageHeaders = []string{"产品条码", "序号", "工序名称", "员工编码", "开始时间", "结束时间", "已完成", "提前结束", "装配录像"}
)

func (s *exportService) ExportUnits(ctx context.Context, status, schemaID string) (*bytes.Buffer, string, error) {
	// 1. 查询产品（含工序）
	filters := &repository.UnitListFilters{Status: status, SchemaID: schemaID, WithStages: true}
	units, _, err := s.repo.Unit.List(ctx, filters, 0, exportLimit)
	if err != nil {
		s.logger.Error("查询导出产品失败", zap.Error(err))
		return nil, "", err
	}
	if len(units) == 0 {
		return nil, "", ErrExportNoUnits
	}

	now := s.now()

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	unitSheet := "产品"
	idx, _ := f.NewSheet(unitSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")
	writeHeader(f, unitSheet, unitHeaders, headerStyle)
	f.SetColWidth(unitSheet, "A", "A", 16)
	f.SetColWidth(unitSheet, "B", "B", 34)
	f.SetColWidth(unitSheet, "C", "M", 18)

	stageSheet := "工序"
	f.NewSheet(stageSheet)
	writeHeader(f, stageSheet, stageHeaders, headerStyle)
	f.SetColWidth(stageSheet, "A", "A", 16)
	f.SetColWidth(stageSheet, "C", "I", 22)

	// 3. 数据行
	stageRow := 2
	for i := range units {
		u := &units[i]
		row := i + 2

		unitName := ""
		if u.Schema != nil {
			unitName = u.Schema.UnitName
		}
		values := []interface{}{
			u.InternalID,
			u.UUID,
			u.SchemaID,
			unitName,
			string(u.Status),
			deref(u.FeaturedIn),
			joinComponents(u),
			u.TotalAssemblyTime(now).String(),
			deref(u.PassportCID),
			deref(u.PassportShortURL),
			deref(u.TxnHash),
			deref(u.PublicationError),
			u.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			f.SetCellValue(unitSheet, cell(colName(col), row), v)
		}

		for j := range u.Stages {
			st := &u.Stages[j]
			stageValues := []interface{}{
				u.InternalID,
				st.Number,
				st.Name,
				deref(st.EmployeeCode),
				formatCellTime(st.StartTime),
				formatCellTime(st.EndTime),
				yesNo(st.Completed),
				yesNo(st.EndedPrematurely),
				strings.Join(st.VideoHashes, ", "),
			}
			for col, v := range stageValues {
				f.SetCellValue(stageSheet, cell(colName(col), stageRow), v)
			}
			stageRow++
		}
	}

	// 4. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("产品履历_%s.xlsx", now.Format("20060102-150405"))
	s.logger.Info("产品履历已导出", zap.Int("units", len(units)), zap.Int("stages", stageRow-2))
	return buf, filename, nil
}

// ── 辅助函数 ──

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(headers)-1), 1), style)
}

func joinComponents(u *model.Unit) string {
	assigned := u.AssignedComponents()
	parts := make([]string, 0, len(assigned))
	for _, sid := range u.ComponentSlots.SchemaIDs() {
		if id, ok := assigned[sid]; ok {
			parts = append(parts, sid+":"+id)
		}
	}
	return strings.Join(parts, "; ")
}

func formatCellTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
