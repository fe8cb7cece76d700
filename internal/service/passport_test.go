package service

import (
	"os"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"feecc-workbench/internal/model"
)

func TestBuildPassport_NestsComponents(t *testing.T) {
	f := newBenchFixture(t, Collaborators{})
	kit := f.seedUnit(t, "kit", false)
	board := f.seedUnit(t, "board", true)
	kase := f.seedUnit(t, "case", true)
	if err := kit.AssignComponent(board); err != nil {
		t.Fatalf("装配失败: %v", err)
	}
	if err := kit.AssignComponent(kase); err != nil {
		t.Fatalf("装配失败: %v", err)
	}
	board.Stages[0].VideoHashes = []string{"QmVideo"}

	p := BuildPassport(kit, "https://gw/ipfs/", f.clock)
	if p.Model != "Kit" || p.InternalID != kit.InternalID {
		t.Errorf("期望 Kit/%s，实际 %s/%s", kit.InternalID, p.Model, p.InternalID)
	}
	if len(p.Components) != 2 {
		t.Fatalf("期望 2 个组件，实际 %d", len(p.Components))
	}
	if p.Components[0].TotalAssemblyTime != (30 * time.Minute).String() {
		t.Errorf("组件总装配时长应为 30m，实际 %s", p.Components[0].TotalAssemblyTime)
	}
	if got := p.Components[0].Stages[0].Videos; len(got) != 1 || got[0] != "https://gw/ipfs/QmVideo" {
		t.Errorf("录像应带链接前缀，实际 %v", got)
	}
}

func TestSavePassport(t *testing.T) {
	dir := t.TempDir()
	u := model.NewUnit(&model.ProductionSchema{SchemaID: "s", UnitName: "Thing"}, time.Now())

	path, err := SavePassport(dir, BuildPassport(u, "", time.Now()))
	if err != nil {
		t.Fatalf("保存证书失败: %v", err)
	}
	if !strings.HasSuffix(path, "unit-passport-"+u.UUID+".yaml") {
		t.Errorf("证书文件名不符合约定: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取证书失败: %v", err)
	}
	var back map[string]interface{}
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("证书不是合法 YAML: %v", err)
	}
	if back["产品条码"] != u.InternalID {
		t.Errorf("期望产品条码 %s，实际 %v", u.InternalID, back["产品条码"])
	}
}
