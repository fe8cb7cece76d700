package service

import (
	"sort"
	"time"

	"feecc-workbench/internal/dto"
	"feecc-workbench/internal/model"
)

// ── model → dto 转换 ──

func toStageResponse(st *model.ProductionStage) dto.StageResponse {
	resp := dto.StageResponse{
		StageID:          st.StageID,
		Name:             st.Name,
		Number:           st.Number,
		EmployeeCode:     st.EmployeeCode,
		StartTime:        dto.FormatTime(st.StartTime),
		EndTime:          dto.FormatTime(st.EndTime),
		Completed:        st.Completed,
		EndedPrematurely: st.EndedPrematurely,
	}
	if len(st.VideoHashes) > 0 {
		resp.VideoHashes = append([]string{}, st.VideoHashes...)
	}
	if len(st.ExtraData) > 0 {
		resp.AdditionalInfo = make(map[string]interface{}, len(st.ExtraData))
		for k, v := range st.ExtraData {
			resp.AdditionalInfo[k] = v
		}
	}
	return resp
}

func toStageResponses(stages []model.ProductionStage) []dto.StageResponse {
	out := make([]dto.StageResponse, 0, len(stages))
	for i := range stages {
		out = append(out, toStageResponse(&stages[i]))
	}
	return out
}

func toUnitResponse(u *model.Unit, now time.Time) *dto.UnitResponse {
	resp := &dto.UnitResponse{
		UUID:              u.UUID,
		InternalID:        u.InternalID,
		SchemaID:          u.SchemaID,
		Status:            string(u.Status),
		FeaturedIn:        u.FeaturedIn,
		Components:        u.AssignedComponents(),
		SerialNumber:      u.SerialNumber,
		PassportCID:       u.PassportCID,
		PassportLink:      u.PassportLink,
		PassportShortURL:  u.PassportShortURL,
		TxnHash:           u.TxnHash,
		PublicationError:  u.PublicationError,
		TotalAssemblyTime: u.TotalAssemblyTime(now).String(),
		CreatedAt:         u.CreatedAt.Format(dto.TimeLayout),
		Biography:         toStageResponses(u.Stages),
	}
	if u.Schema != nil {
		resp.UnitName = u.Schema.UnitName
	}
	return resp
}

func toEmployeeResponse(e *model.Employee) *dto.EmployeeResponse {
	return &dto.EmployeeResponse{
		CardID:       e.CardID,
		Name:         e.Name,
		Position:     e.Position,
		PassportCode: e.PassportCode(),
	}
}

func toSchemaResponse(s *model.ProductionSchema) dto.SchemaResponse {
	stages := make([]dto.SchemaStageRequest, 0, len(s.ProductionStages))
	for _, st := range s.ProductionStages {
		stages = append(stages, dto.SchemaStageRequest{Name: st.Name, StageID: st.StageID, Description: st.Description})
	}
	required := append([]string{}, s.RequiredComponentsSchemaIDs...)
	return dto.SchemaResponse{
		SchemaID:                    s.SchemaID,
		UnitName:                    s.UnitName,
		UnitShortName:               s.UnitShortName,
		ParentSchemaID:              s.ParentSchemaID,
		IsComposite:                 s.IsComposite(),
		ProductionStages:            stages,
		RequiredComponentsSchemaIDs: required,
	}
}

// buildSchemaTree 组合方案在前，其组件方案嵌套在 Components 下；
// 已作为组件出现过的方案不再单独列出
func buildSchemaTree(schemas []model.ProductionSchema) []dto.SchemaResponse {
	byID := make(map[string]*model.ProductionSchema, len(schemas))
	for i := range schemas {
		byID[schemas[i].SchemaID] = &schemas[i]
	}

	ordered := make([]*model.ProductionSchema, 0, len(schemas))
	for i := range schemas {
		ordered = append(ordered, &schemas[i])
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].IsComposite() != ordered[j].IsComposite() {
			return ordered[i].IsComposite()
		}
		return ordered[i].SchemaID < ordered[j].SchemaID
	})

	handled := make(map[string]bool, len(schemas))
	var build func(s *model.ProductionSchema, depth int) dto.SchemaResponse
	build = func(s *model.ProductionSchema, depth int) dto.SchemaResponse {
		handled[s.SchemaID] = true
		resp := toSchemaResponse(s)
		if depth >= 8 {
			return resp
		}
		for _, id := range s.RequiredComponentsSchemaIDs {
			if child, ok := byID[id]; ok {
				resp.Components = append(resp.Components, build(child, depth+1))
			}
		}
		return resp
	}

	out := make([]dto.SchemaResponse, 0, len(ordered))
	for _, s := range ordered {
		if handled[s.SchemaID] {
			continue
		}
		out = append(out, build(s, 0))
	}
	return out
}
