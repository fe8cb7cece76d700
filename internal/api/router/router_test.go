package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"feecc-workbench/config"
	"feecc-workbench/internal/api/handler"
	"feecc-workbench/internal/repository"
	"feecc-workbench/internal/service"
	"feecc-workbench/pkg/database"
	"feecc-workbench/pkg/jwt"
	"feecc-workbench/pkg/worker"
)

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

type testEnv struct {
	engine *gin.Engine
	jwtMgr *jwt.Manager
	cfg    *config.Config
}

// newTestEnv 以 SQLite 文件库装配完整的路由、服务与仓储
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Server:    config.ServerConfig{BodyLimit: 1 << 20},
		Database:  config.DatabaseConfig{Driver: "sqlite", SQLitePath: filepath.Join(dir, "bench.db")},
		Auth:      config.AuthConfig{DeviceSecret: "router-test-secret", DeviceTokenTTL: time.Hour},
		Workbench: config.WorkbenchConfig{Number: 4},
		HID:       config.HIDConfig{RFIDReader: "rfid", BarcodeReader: "barcode"},
		Passport:  config.PassportConfig{Dir: dir},
		Worker:    config.WorkerConfig{Size: 1, QueueSize: 8, TaskTimeout: time.Second},
	}
	logger := zap.NewNop()

	db, err := database.NewDB(&cfg.Database, "error", logger)
	if err != nil {
		t.Fatalf("打开数据库失败: %v", err)
	}
	if err := database.Migrate(db, "sqlite", logger); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
	})

	pool := worker.NewPool(&cfg.Worker, logger)
	pool.Start(context.Background())
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })

	svc := service.NewService(cfg, repository.NewRepository(db), service.Deps{Pool: pool}, logger)
	t.Cleanup(svc.Notifier.Close)

	jwtMgr := jwt.NewManager(&cfg.Auth)
	return &testEnv{
		engine: Setup(cfg, handler.NewHandler(svc), jwtMgr, nil, logger),
		jwtMgr: jwtMgr,
		cfg:    cfg,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func stateOf(t *testing.T, env envelope) string {
	t.Helper()
	var snap struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("解析快照失败: %v", err)
	}
	return snap.State
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w, _ := e.do(t, "GET", "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("响应应带有 X-Request-ID")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("响应应带有安全头")
	}
}

func TestWorkbench_LoginFlow(t *testing.T) {
	e := newTestEnv(t)

	w, env := e.do(t, "GET", "/api/v1/workbench/status", nil, "")
	if w.Code != http.StatusOK || stateOf(t, env) != "AwaitLogin" {
		t.Fatalf("初始状态应为 AwaitLogin，实际 %d %s", w.Code, w.Body.String())
	}

	w, _ = e.do(t, "POST", "/api/v1/workbench/log-in", map[string]string{"employee_rfid_card_no": "0008368511"}, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("未登记员工期望 404，实际 %d", w.Code)
	}

	w, _ = e.do(t, "POST", "/api/v1/employees", map[string]string{
		"rfid_card_id": "0008368511", "name": "张三", "position": "装配工",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("登记员工期望 200，实际 %d %s", w.Code, w.Body.String())
	}

	w, env = e.do(t, "POST", "/api/v1/workbench/log-in", map[string]string{"employee_rfid_card_no": "0008368511"}, "")
	if w.Code != http.StatusOK || stateOf(t, env) != "AuthorizedIdling" {
		t.Fatalf("登录后期望 AuthorizedIdling，实际 %d %s", w.Code, w.Body.String())
	}

	w, _ = e.do(t, "POST", "/api/v1/workbench/start-operation", nil, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("未分配产品时开始工序期望 403，实际 %d", w.Code)
	}

	w, env = e.do(t, "POST", "/api/v1/workbench/log-out", nil, "")
	if w.Code != http.StatusOK || stateOf(t, env) != "AwaitLogin" {
		t.Errorf("登出后期望 AwaitLogin，实际 %d %s", w.Code, w.Body.String())
	}
}

func TestWorkbench_HIDEvent(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "POST", "/api/v1/employees", map[string]string{
		"rfid_card_id": "card-1", "name": "李四", "position": "质检员",
	}, "")

	body := map[string]string{"string": "card-1"}

	w, _ := e.do(t, "POST", "/api/v1/workbench/hid-event", body, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("缺少设备令牌期望 401，实际 %d", w.Code)
	}

	foreign, _ := e.jwtMgr.GenerateDeviceToken("rfid", e.cfg.Workbench.Number+1)
	w, _ = e.do(t, "POST", "/api/v1/workbench/hid-event", body, foreign)
	if w.Code != http.StatusForbidden {
		t.Errorf("其他工位令牌期望 403，实际 %d", w.Code)
	}

	token, _ := e.jwtMgr.GenerateDeviceToken("rfid", e.cfg.Workbench.Number)
	w, env := e.do(t, "POST", "/api/v1/workbench/hid-event", body, token)
	if w.Code != http.StatusOK || stateOf(t, env) != "AuthorizedIdling" {
		t.Fatalf("刷卡后期望 AuthorizedIdling，实际 %d %s", w.Code, w.Body.String())
	}
}

func TestNotFoundRoutes(t *testing.T) {
	e := newTestEnv(t)
	w, _ := e.do(t, "GET", "/api/v1/units/999999", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("不存在的产品期望 404，实际 %d", w.Code)
	}
	w, _ = e.do(t, "GET", "/api/v1/no-such-route", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("未注册路由期望 404，实际 %d", w.Code)
	}
}
