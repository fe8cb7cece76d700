package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"feecc-workbench/config"
	"feecc-workbench/internal/dto"
	"feecc-workbench/pkg/jwt"
)

func strPtr(s string) *string { return &s }

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatusCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/workbench/status" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"message":"success","data":{
			"workbench_no":3,"state":"ProductionStageOngoing","state_description":"工序进行中",
			"employee":{"name":"王五","position":"装配工"},
			"unit_internal_id":"2000000000015","open_stage_name":"焊接",
			"unit_biography":[{"stage_id":"s1","name":"焊接","number":0,"completed":false}]}}`))
	}))
	defer srv.Close()

	out, err := run(t, "status", "--server", srv.URL)
	if err != nil {
		t.Fatalf("执行 status 失败: %v", err)
	}
	for _, want := range []string{"ProductionStageOngoing", "王五 (装配工)", "2000000000015", "焊接"} {
		if !strings.Contains(out, want) {
			t.Errorf("输出应包含 %q，实际:\n%s", want, out)
		}
	}
}

func TestStatusCommand_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":50000,"message":"服务器内部错误"}`))
	}))
	defer srv.Close()

	_, err := run(t, "status", "--server", srv.URL)
	if err == nil || !strings.Contains(err.Error(), "50000") {
		t.Errorf("期望返回错误码 50000，实际: %v", err)
	}
}

func TestFormatSchemas_NestsComponents(t *testing.T) {
	out := formatSchemas([]dto.SchemaResponse{{
		SchemaID:    "kit",
		UnitName:    "套件",
		IsComposite: true,
		Components: []dto.SchemaResponse{
			{SchemaID: "board", UnitName: "主板", UnitShortName: strPtr("BRD"), ProductionStages: []dto.SchemaStageRequest{{Name: "贴片", StageID: "s1"}}},
		},
	}})
	if !strings.Contains(out, "  board") {
		t.Errorf("组件方案应缩进显示，实际:\n%s", out)
	}
	if !strings.Contains(out, "BRD") || !strings.Contains(out, "是") {
		t.Errorf("输出缺少简称或组合件标记:\n%s", out)
	}
}

func TestDeviceTokenCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "auth:\n  device_secret: ctl-test-secret-0123\nworkbench:\n  number: 9\ndb:\n  driver: sqlite\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "device-token", "--config", path, "--device", "rfid_reader")
	if err != nil {
		t.Fatalf("签发令牌失败: %v", err)
	}

	mgr := jwt.NewManager(&config.AuthConfig{DeviceSecret: "ctl-test-secret-0123", DeviceTokenTTL: time.Hour})
	claims, err := mgr.ParseToken(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("令牌应可被服务端解析: %v", err)
	}
	if claims.Device != "rfid_reader" || claims.Workbench != 9 {
		t.Errorf("期望 rfid_reader@9，实际 %s@%d", claims.Device, claims.Workbench)
	}
}

func TestDeviceTokenCommand_RequiresDevice(t *testing.T) {
	if _, err := run(t, "device-token"); err == nil {
		t.Error("缺少 --device 时应报错")
	}
}
