package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"feecc-workbench/internal/model"
)

// Passport 产品证书：产品完整生产履历的可读记录
type Passport struct {
	UUID              string          `yaml:"产品证书编号"`
	Model             string          `yaml:"产品型号"`
	InternalID        string          `yaml:"产品条码"`
	SerialNumber      string          `yaml:"产品序列号,omitempty"`
	TotalAssemblyTime string          `yaml:"总装配时长"`
	Stages            []PassportStage `yaml:"生产工序,omitempty"`
	Components        []Passport      `yaml:"组件,omitempty"`
}

// PassportStage 证书中的单个工序
type PassportStage struct {
	Name             string                 `yaml:"工序名称"`
	EmployeeCode     string                 `yaml:"员工编码,omitempty"`
	StartTime        string                 `yaml:"开始时间,omitempty"`
	EndTime          string                 `yaml:"结束时间,omitempty"`
	EndedPrematurely bool                   `yaml:"提前结束,omitempty"`
	Videos           []string               `yaml:"装配录像,omitempty"`
	AdditionalInfo   map[string]interface{} `yaml:"附加信息,omitempty"`
}

// BuildPassport 由产品及其已加载的组件构建证书
func BuildPassport(u *model.Unit, linkPrefix string, now time.Time) Passport {
	p := Passport{
		UUID:              u.UUID,
		InternalID:        u.InternalID,
		TotalAssemblyTime: u.TotalAssemblyTime(now).Round(time.Second).String(),
	}
	if u.Schema != nil {
		p.Model = u.Schema.UnitName
	} else {
		p.Model = u.SchemaID
	}
	if u.SerialNumber != nil {
		p.SerialNumber = *u.SerialNumber
	}

	for i := range u.Stages {
		st := &u.Stages[i]
		ps := PassportStage{
			Name:             st.Name,
			EndedPrematurely: st.EndedPrematurely,
		}
		if st.EmployeeCode != nil {
			ps.EmployeeCode = *st.EmployeeCode
		}
		if st.StartTime != nil {
			ps.StartTime = st.StartTime.Format(time.DateTime)
		}
		if st.EndTime != nil {
			ps.EndTime = st.EndTime.Format(time.DateTime)
		}
		for _, cid := range st.VideoHashes {
			ps.Videos = append(ps.Videos, linkPrefix+cid)
		}
		if len(st.ExtraData) > 0 {
			ps.AdditionalInfo = map[string]interface{}(st.ExtraData)
		}
		p.Stages = append(p.Stages, ps)
	}

	for _, c := range u.Components {
		p.Components = append(p.Components, BuildPassport(c, linkPrefix, now))
	}
	return p
}

// SavePassport 将证书写入 dir/unit-passport-<uuid>.yaml 并返回路径
func SavePassport(dir string, p Passport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("创建证书目录失败: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("序列化证书失败: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("unit-passport-%s.yaml", p.UUID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入证书失败: %w", err)
	}
	return path, nil
}
