package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"feecc-workbench/internal/dto"
	"feecc-workbench/pkg/jwt"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "查看工位当前状态",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.serverURL()
			if err != nil {
				return err
			}
			var snap dto.WorkbenchSnapshot
			if err := fetch(cmd.Context(), base, "/api/v1/workbench/status", &snap); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatSnapshot(&snap))
			return nil
		},
	}
}

func newSchemasCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "列出生产方案（组件方案缩进显示）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.serverURL()
			if err != nil {
				return err
			}
			var schemas []dto.SchemaResponse
			if err := fetch(cmd.Context(), base, "/api/v1/schemas", &schemas); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatSchemas(schemas))
			return nil
		},
	}
}

func newDeviceTokenCommand(ctx *commandContext) *cobra.Command {
	var device string
	var workbench int
	cmd := &cobra.Command{
		Use:   "device-token",
		Short: "为扫码设备网关签发令牌",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if workbench <= 0 {
				workbench = cfg.Workbench.Number
			}
			token, err := jwt.NewManager(&cfg.Auth).GenerateDeviceToken(device, workbench)
			if err != nil {
				return fmt.Errorf("签发令牌失败: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&device, "device", "", "设备名（与 hid.rfid_reader / hid.barcode_reader 对应）")
	cmd.Flags().IntVar(&workbench, "workbench", 0, "绑定的工位号，默认取配置")
	_ = cmd.MarkFlagRequired("device")
	return cmd
}

// ── 输出格式 ──

func formatSnapshot(s *dto.WorkbenchSnapshot) string {
	employee := "-"
	if s.Employee != nil {
		employee = s.Employee.Name + " (" + s.Employee.Position + ")"
	}
	rows := [][]string{
		{"工位", strconv.Itoa(s.Workbench)},
		{"状态", s.State},
		{"说明", s.Description},
		{"员工", employee},
		{"产品", orDash(s.UnitInternalID)},
		{"产品状态", orDash(s.UnitStatus)},
		{"当前工序", orDash(s.OpenStageName)},
	}

	if len(s.AssignedComponents) > 0 {
		keys := make([]string, 0, len(s.AssignedComponents))
		for k := range s.AssignedComponents {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, []string{"组件 " + k, orEmpty(s.AssignedComponents[k], "待扫描")})
		}
	}

	out := renderTable([]string{"项目", "值"}, rows)
	if len(s.UnitBiography) == 0 {
		return out
	}

	stages := make([][]string, 0, len(s.UnitBiography))
	for _, st := range s.UnitBiography {
		stages = append(stages, []string{
			strconv.Itoa(st.Number),
			st.Name,
			orDash(st.EmployeeCode),
			orDash(st.StartTime),
			orDash(st.EndTime),
			yesNo(st.Completed),
		})
	}
	return out + "\n" + renderTable([]string{"#", "工序", "员工", "开始", "结束", "完成"}, stages, 1)
}

func formatSchemas(schemas []dto.SchemaResponse) string {
	rows := make([][]string, 0, len(schemas))
	var walk func(items []dto.SchemaResponse, depth int)
	walk = func(items []dto.SchemaResponse, depth int) {
		for _, s := range items {
			rows = append(rows, []string{
				strings.Repeat("  ", depth) + s.SchemaID,
				s.UnitName,
				orDash(s.UnitShortName),
				strconv.Itoa(len(s.ProductionStages)),
				yesNo(s.IsComposite),
			})
			walk(s.Components, depth+1)
		}
	}
	walk(schemas, 0)
	return renderTable([]string{"方案", "产品名称", "简称", "工序数", "组合件"}, rows, 4)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func orEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}
