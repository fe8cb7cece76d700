package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"feecc-workbench/config"
	"feecc-workbench/internal/model"
	"feecc-workbench/pkg/worker"
)

var errCollaboratorDown = errors.New("collaborator unavailable")

// ── 协作服务 fake ──

type fakeRecorder struct {
	mu       sync.Mutex
	startErr error
	stopErr  error
	file     string
	started  int
	units    []string
	stopped  []string

	// release 非空时 Start 阻塞到 release 关闭
	release chan struct{}
}

func (f *fakeRecorder) Start(_ context.Context, unitID, _ string) (string, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	f.units = append(f.units, unitID)
	if f.startErr != nil {
		return "", f.startErr
	}
	return "rec-1", nil
}

func (f *fakeRecorder) stoppedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stopped...)
}

func (f *fakeRecorder) Stop(_ context.Context, recordID, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, recordID)
	if f.stopErr != nil {
		return "", f.stopErr
	}
	return f.file, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	err       error
	published []string
}

func (f *fakePublisher) Publish(_ context.Context, _ string, path string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", "", f.err
	}
	f.published = append(f.published, path)
	cid := "Qm" + string(rune('A'+len(f.published)-1))
	return cid, "https://gateway.test/ipfs/" + cid, nil
}

func (f *fakePublisher) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.published...)
}

type fakeNotarizer struct {
	mu      sync.Mutex
	err     error
	content []string
}

func (f *fakeNotarizer) Notarize(_ context.Context, _ string, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content = append(f.content, content)
	if f.err != nil {
		return "", f.err
	}
	return "0xabc", nil
}

type fakeShortLinker struct {
	err error
}

func (f *fakeShortLinker) Shorten(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://s.test/x1", nil
}

type printJob struct {
	annotation string
	size       int
}

type fakePrinter struct {
	mu   sync.Mutex
	jobs []printJob
}

func (f *fakePrinter) Print(_ context.Context, _ string, image []byte, annotation string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, printJob{annotation: annotation, size: len(image)})
	return nil
}

func (f *fakePrinter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

// ── 工位测试夹具 ──

type benchFixture struct {
	svc       *workbenchService
	repos     *mockRepos
	cfg       *config.Config
	notifier  *StateNotifier
	messenger *Messenger
	pool      *worker.Pool
	clock     time.Time
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Workbench: config.WorkbenchConfig{Number: 7},
		Camera:    config.CameraConfig{Timeout: time.Second, StopWait: time.Second},
		IPFS:      config.IPFSConfig{LinkPrefix: "https://gateway.test/ipfs/", Timeout: time.Second},
		Yourls:    config.YourlsConfig{Timeout: time.Second},
		Printer: config.PrinterConfig{
			PrintBarcode:     true,
			PrintQR:          true,
			PrintSecurityTag: true,
			Timeout:          time.Second,
		},
		HID:      config.HIDConfig{RFIDReader: "rfid-reader", BarcodeReader: "barcode-reader"},
		Passport: config.PassportConfig{Dir: t.TempDir()},
		Worker:   config.WorkerConfig{Size: 1, QueueSize: 16, TaskTimeout: 5 * time.Second},
	}
}

func newBenchFixture(t *testing.T, collab Collaborators) *benchFixture {
	t.Helper()
	cfg := testConfig(t)
	repo, repos := newMockRepos()
	repos.seedSchemas()
	repos.seedEmployee("card-1", "Alice")
	repos.seedEmployee("card-2", "Bob")

	logger := zap.NewNop()
	pool := worker.NewPool(&cfg.Worker, logger)
	pool.Start(context.Background())
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })

	notifier := NewStateNotifier(cfg.Workbench.Number, nil, logger)
	t.Cleanup(notifier.Close)
	messenger := NewMessenger(logger)
	certs := NewCertificateService(cfg, repo, collab, pool, messenger, logger)

	f := &benchFixture{
		repos:     repos,
		cfg:       cfg,
		notifier:  notifier,
		messenger: messenger,
		pool:      pool,
		clock:     time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewWorkbenchService(cfg, repo, collab, certs, notifier, messenger, logger).(*workbenchService)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *benchFixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

// seedUnit 写入一个指定方案的产品；built 为 true 时所有工序标记完成
func (f *benchFixture) seedUnit(t *testing.T, schemaID string, built bool) *model.Unit {
	t.Helper()
	schema, ok := f.repos.schemas.schemas[schemaID]
	if !ok {
		t.Fatalf("未知方案 %s", schemaID)
	}
	u := model.NewUnit(schema, f.clock)
	if built {
		start := f.clock.Add(-time.Hour)
		end := f.clock.Add(-30 * time.Minute)
		for i := range u.Stages {
			u.Stages[i].StartTime = &start
			u.Stages[i].EndTime = &end
			u.Stages[i].Completed = true
		}
		u.Status = model.UnitStatusBuilt
	}
	f.repos.units.mu.Lock()
	f.repos.units.put(u)
	f.repos.units.mu.Unlock()
	return u
}

func (f *benchFixture) state() State {
	return State(f.svc.Snapshot().State)
}

// waitFor 轮询直到 cond 成立，用于等待后台任务
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("等待超时: %s", what)
}
