package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"feecc-workbench/config"
	"feecc-workbench/internal/dto"
	"feecc-workbench/internal/model"
	"feecc-workbench/internal/repository"
	"feecc-workbench/pkg/tracing"
)

// WorkbenchService 工位状态机
//
// 一个实例对应一个物理工位。所有状态迁移在同一把互斥锁下完成
// 校验 → 修改 → 持久化 → 广播，因此任意两次调用都是线性化的。
// 产品总是先在副本上修改，持久化成功后才替换工位持有的产品。
type WorkbenchService interface {
	LogIn(ctx context.Context, cardID string) (*dto.WorkbenchSnapshot, error)
	LogOut(ctx context.Context) (*dto.WorkbenchSnapshot, error)
	CreateUnit(ctx context.Context, schemaID string) (*dto.UnitResponse, error)
	AssignUnit(ctx context.Context, internalID string) (*dto.WorkbenchSnapshot, error)
	RemoveUnit(ctx context.Context) (*dto.WorkbenchSnapshot, error)
	AssignComponent(ctx context.Context, internalID string) (*dto.WorkbenchSnapshot, error)
	StartOperation(ctx context.Context, extra map[string]interface{}) (*dto.WorkbenchSnapshot, error)
	EndOperation(ctx context.Context, extra map[string]interface{}, premature bool) (*dto.WorkbenchSnapshot, error)
	UploadCertificate(ctx context.Context) (*dto.CertificateResponse, error)

	// HandleCardScan 刷卡：未登录时登录，已登录时登出
	HandleCardScan(ctx context.Context, cardID string) (*dto.WorkbenchSnapshot, error)
	// HandleBarcodeScan 扫码：按当前状态分配、替换产品，装配组件或结束工序
	HandleBarcodeScan(ctx context.Context, code string) (*dto.WorkbenchSnapshot, error)
	// HandleHIDEvent 按设备名路由扫码设备事件
	HandleHIDEvent(ctx context.Context, device, value string) (*dto.WorkbenchSnapshot, error)

	Snapshot() *dto.WorkbenchSnapshot
	Subscribe(ctx context.Context) <-chan *dto.WorkbenchSnapshot
	// Shutdown 进程退出前收尾：提前结束进行中的工序、移除产品并登出
	Shutdown(ctx context.Context) error
}

// recording 进行中的录像；done 关闭后 id/err 可读
type recording struct {
	done chan struct{}
	id   string
	err  error
}

type workbenchService struct {
	number       int
	repo         *repository.Repository
	collab       Collaborators
	certificates CertificateService
	notifier     *StateNotifier
	messenger    *Messenger
	camera       config.CameraConfig
	ipfs         config.IPFSConfig
	hid          config.HIDConfig
	logger       *zap.Logger
	now          func() time.Time

	mu        sync.Mutex
	state     State
	employee  *model.Employee
	unit      *model.Unit
	recording *recording
}

// NewWorkbenchService 创建工位状态机，初始状态为 AwaitLogin
func NewWorkbenchService(
	cfg *config.Config,
	repo *repository.Repository,
	collab Collaborators,
	certificates CertificateService,
	notifier *StateNotifier,
	messenger *Messenger,
	logger *zap.Logger,
) WorkbenchService {
	s := &workbenchService{
		number:       cfg.Workbench.Number,
		repo:         repo,
		collab:       collab,
		certificates: certificates,
		notifier:     notifier,
		messenger:    messenger,
		camera:       cfg.Camera,
		ipfs:         cfg.IPFS,
		hid:          cfg.HID,
		logger:       logger,
		now:          time.Now,
		state:        StateAwaitLogin,
	}
	s.notifier.Broadcast(s.snapshotLocked())
	s.logger.Info("工位已初始化", zap.String("state", string(s.state)))
	return s
}

// ── 锁与追踪 ──

// begin 获取工位锁并开启 span；返回的 end 释放锁并结束 span
func (s *workbenchService) begin(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := tracing.Tracer().Start(ctx, "workbench."+op)
	s.mu.Lock()
	span.SetAttributes(
		attribute.Int("workbench.number", s.number),
		attribute.String("workbench.state", string(s.state)),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("workbench.state_after", string(s.state)))
		s.mu.Unlock()
		span.End()
	}
}

// validate 迁移表中不存在 当前状态 → target 时拒绝
func (s *workbenchService) validate(target State) error {
	if !s.state.CanTransitionTo(target) {
		return forbidden(s.state, target)
	}
	return nil
}

// commit 应用新状态并广播快照
func (s *workbenchService) commit(target State) {
	if s.state != target {
		s.logger.Info("工位状态变更", zap.String("from", string(s.state)), zap.String("to", string(target)))
	}
	s.state = target
	s.notifier.Broadcast(s.snapshotLocked())
}

func (s *workbenchService) snapshotLocked() *dto.WorkbenchSnapshot {
	snap := &dto.WorkbenchSnapshot{
		Workbench:        s.number,
		State:            string(s.state),
		Description:      s.state.Description(),
		EmployeeLoggedIn: s.employee != nil,
		OperationOngoing: s.state == StateProductionStageOngoing,
	}
	if s.employee != nil {
		snap.Employee = &dto.EmployeeSummary{
			Name:         s.employee.Name,
			Position:     s.employee.Position,
			PassportCode: s.employee.PassportCode(),
		}
	}
	if s.unit != nil {
		id := s.unit.InternalID
		status := string(s.unit.Status)
		snap.UnitInternalID = &id
		snap.UnitStatus = &status
		snap.UnitBiography = toStageResponses(s.unit.Stages)
		snap.AssignedComponents = s.unit.AssignedComponents()
		if _, open := s.unit.OpenStage(); open != nil {
			name := open.Name
			snap.OpenStageName = &name
		}
	}
	return snap
}

func (s *workbenchService) Snapshot() *dto.WorkbenchSnapshot {
	return s.notifier.Latest()
}

func (s *workbenchService) Subscribe(ctx context.Context) <-chan *dto.WorkbenchSnapshot {
	return s.notifier.Subscribe(ctx)
}

// ── 查询 ──

func (s *workbenchService) loadEmployee(ctx context.Context, cardID string) (*model.Employee, error) {
	emp, err := s.repo.Employee.GetByCardID(ctx, cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, err
	}
	return emp, nil
}

func (s *workbenchService) loadUnit(ctx context.Context, internalID string) (*model.Unit, error) {
	unit, err := s.repo.Unit.GetByInternalID(ctx, internalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		s.logger.Error("查询产品失败", zap.String("internal_id", internalID), zap.Error(err))
		return nil, err
	}
	return unit, nil
}

func (s *workbenchService) cardID() string {
	if s.employee == nil {
		return ""
	}
	return s.employee.CardID
}

// ═══════════════════════════════════════════════════════════
// 登录 / 登出
// ═══════════════════════════════════════════════════════════

func (s *workbenchService) LogIn(ctx context.Context, cardID string) (snap *dto.WorkbenchSnapshot, err error) {
	ctx, end := s.begin(ctx, "LogIn")
	defer func() { end(err) }()

	if err = s.logIn(ctx, cardID); err != nil {
		return nil, err
	}
	return s.snapshotLocked(), nil
}

func (s *workbenchService) logIn(ctx context.Context, cardID string) error {
	if err := s.validate(StateAuthorizedIdling); err != nil {
		return err
	}
	emp, err := s.loadEmployee(ctx, cardID)
	if err != nil {
		return err
	}

	s.employee = emp
	s.logger.Info("员工已登录", zap.String("employee", emp.Name))
	s.commit(StateAuthorizedIdling)
	return nil
}

func (s *workbenchService) LogOut(ctx context.Context) (snap *dto.WorkbenchSnapshot, err error) {
	_, end := s.begin(ctx, "LogOut")
	defer func() { end(err) }()

	if err = s.logOut(); err != nil {
		return nil, err
	}
	return s.snapshotLocked(), nil
}

func (s *workbenchService) logOut() error {
	if err := s.validate(StateAwaitLogin); err != nil {
		return err
	}
	if s.state == StateUnitAssignedIdling {
		if err := s.removeUnit(); err != nil {
			return err
		}
	}

	if s.employee != nil {
		s.logger.Info("员工已登出", zap.String("employee", s.employee.Name))
	}
	s.employee = nil
	s.commit(StateAwaitLogin)
	return nil
}

// ═══════════════════════════════════════════════════════════
// 产品分配
// ═══════════════════════════════════════════════════════════

func (s *workbenchService) CreateUnit(ctx context.Context, schemaID string) (resp *dto.UnitResponse, err error) {
	ctx, end := s.begin(ctx, "CreateUnit")
	defer func() { end(err) }()

	if s.state != StateAuthorizedIdling {
		return nil, fmt.Errorf("%w: %s", ErrCreateUnitForbidden, s.state)
	}

	schema, err := s.repo.Schema.GetByID(ctx, schemaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSchemaNotFound
		}
		s.logger.Error("查询生产方案失败", zap.String("schema_id", schemaID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	unit := model.NewUnit(schema, now)
	if err = s.repo.Unit.Save(ctx, unit); err != nil {
		s.logger.Error("保存新产品失败", zap.Error(err))
		return nil, persistenceError(err)
	}
	s.logger.Info("新产品已创建", zap.String("unit", unit.InternalID), zap.String("schema_id", schemaID))

	if s.certificates != nil {
		if err := s.certificates.PrintBarcode(unit, s.cardID()); err != nil {
			s.logger.Warn("条码打印未能排队", zap.String("unit", unit.InternalID), zap.Error(err))
			s.messenger.Warning("产品已创建，但条码标签未能打印")
		}
	}
	return toUnitResponse(unit, now), nil
}

func (s *workbenchService) AssignUnit(ctx context.Context, internalID string) (snap *dto.WorkbenchSnapshot, err error) {
	ctx, end := s.begin(ctx, "AssignUnit")
	defer func() { end(err) }()

	if err = s.validate(StateUnitAssignedIdling); err != nil {
		return nil, err
	}
	unit, err := s.loadUnit(ctx, internalID)
	if err != nil {
		return nil, err
	}
	if err = s.assignUnit(unit); err != nil {
		return nil, err
	}
	return s.snapshotLocked(), nil
}

// assignUnit 组合产品组件未齐时进入 GatherComponents，否则进入 UnitAssignedIdling
func (s *workbenchService) assignUnit(unit *model.Unit) error {
	if err := s.validate(StateUnitAssignedIdling); err != nil {
		return err
	}
	// 工序进行中不得换下产品，否则开启的工序与录像无人收尾
	if s.state == StateProductionStageOngoing {
		return ErrOperationOngoing
	}
	if s.unit != nil {
		if idx, _ := s.unit.OpenStage(); idx >= 0 {
			return ErrOperationOngoing
		}
	}
	if !unit.Status.InWork() {
		return fmt.Errorf("%w: %s", model.ErrUnitNotInWork, unit.Status)
	}
	if s.state == StateGatherComponents && s.unit != nil {
		s.logger.Info("放弃未完成的组件装配", zap.String("unit", s.unit.InternalID))
	}

	s.unit = unit
	s.logger.Info("产品已分配到工位", zap.String("unit", unit.InternalID))

	if unit.IsComposite() && !unit.ComponentsFilled() {
		s.logger.Info("组合产品组件未齐，进入组件装配", zap.String("unit", unit.InternalID))
		s.commit(StateGatherComponents)
		return nil
	}
	s.commit(StateUnitAssignedIdling)
	return nil
}

func (s *workbenchService) RemoveUnit(ctx context.Context) (snap *dto.WorkbenchSnapshot, err error) {
	_, end := s.begin(ctx, "RemoveUnit")
	defer func() { end(err) }()

	if err = s.removeUnit(); err != nil {
		return nil, err
	}
	return s.snapshotLocked(), nil
}

func (s *workbenchService) removeUnit() error {
	if err := s.validate(StateAuthorizedIdling); err != nil {
		return err
	}
	if s.unit != nil {
		s.logger.Info("产品已从工位移除", zap.String("unit", s.unit.InternalID))
	}
	s.unit = nil
	s.commit(StateAuthorizedIdling)
	return nil
}

// ═══════════════════════════════════════════════════════════
// 组件装配
// ═══════════════════════════════════════════════════════════

func (s *workbenchService) AssignComponent(ctx context.Context, internalID string) (snap *dto.WorkbenchSnapshot, err error) {
	ctx, end := s.begin(ctx, "AssignComponent")
	defer func() { end(err) }()

	if s.state != StateGatherComponents || s.unit == nil {
		return nil, ErrNotGatheringComponents
	}
	component, err := s.loadUnit(ctx, internalID)
	if err != nil {
		return nil, err
	}
	if err = s.assignComponent(ctx, component); err != nil {
		return nil, err
	}
	return s.snapshotLocked(), nil
}

func (s *workbenchService) assignComponent(ctx context.Context, component *model.Unit) error {
	next := s.unit.Clone()
	if err := next.AssignComponent(component); err != nil {
		s.messenger.Warning(err.Error())
		return err
	}
	s.logger.Info("组件已装配",
		zap.String("unit", next.InternalID),
		zap.String("component", component.InternalID),
		zap.String("schema_id", component.SchemaID),
	)

	if !next.ComponentsFilled() {
		s.unit = next
		s.commit(StateGatherComponents)
		return nil
	}

	// 组件装配完成：产品与全部组件在一个事务内写入
	units := append([]*model.Unit{next}, next.Components...)
	if err := s.repo.Unit.SaveAll(ctx, units); err != nil {
		s.logger.Error("保存组件装配结果失败", zap.String("unit", next.InternalID), zap.Error(err))
		return persistenceError(err)
	}
	s.unit = next
	s.messenger.Success("组件已全部装配")
	s.commit(StateUnitAssignedIdling)
	return nil
}

// ═══════════════════════════════════════════════════════════
// 工序
// ═══════════════════════════════════════════════════════════

func (s *workbenchService) StartOperation(ctx context.Context, extra map[string]interface{}) (snap *dto.WorkbenchSnapshot, err error) {
	ctx, end := s.begin(ctx, "StartOperation")
	defer func() { end(err) }()

	if err = s.startOperation(ctx, extra); err != nil {
		return nil, err
	}
	return s.snapshotLocked(), nil
}

func (s *workbenchService) startOperation(ctx context.Context, extra map[string]interface{}) error {
	if err := s.validate(StateProductionStageOngoing); err != nil {
		return err
	}
	if s.unit == nil {
		return ErrNoUnitAssigned
	}
	if s.employee == nil {
		return ErrNoEmployeeLoggedIn
	}

	next := s.unit.Clone()
	stage, err := next.StartSession(s.employee.PassportCode(), s.now(), extra)
	if err != nil {
		return err
	}
	if err := s.repo.Unit.Save(ctx, next); err != nil {
		s.logger.Error("保存工序开始失败", zap.String("unit", next.InternalID), zap.Error(err))
		return persistenceError(err)
	}

	s.unit = next
	s.logger.Info("工序已开始", zap.String("unit", next.InternalID), zap.String("stage", stage.Name), zap.Int("number", stage.Number))
	s.commit(StateProductionStageOngoing)

	if s.collab.Recorder != nil {
		s.startRecording(ctx)
	}
	return nil
}

// startRecording 异步开始录像；失败不回滚已开始的工序
func (s *workbenchService) startRecording(ctx context.Context) {
	rec := &recording{done: make(chan struct{})}
	s.recording = rec
	cardID := s.cardID()
	unitID := s.unit.InternalID
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), orDefault(s.camera.Timeout, 10*time.Second))

	go func() {
		defer cancel()
		defer close(rec.done)
		rec.id, rec.err = s.collab.Recorder.Start(recCtx, unitID, cardID)
		if rec.err != nil {
			s.logger.Warn("开始录像失败", zap.String("unit", unitID), zap.Error(rec.err))
			s.messenger.Error("录像启动失败，工序将不包含录像")
		}
	}()
}

func (s *workbenchService) EndOperation(ctx context.Context, extra map[string]interface{}, premature bool) (snap *dto.WorkbenchSnapshot, err error) {
	ctx, end := s.begin(ctx, "EndOperation")
	defer func() { end(err) }()

	if err = s.endOperation(ctx, extra, premature); err != nil {
		return nil, err
	}
	return s.snapshotLocked(), nil
}

func (s *workbenchService) endOperation(ctx context.Context, extra map[string]interface{}, premature bool) error {
	if err := s.validate(StateUnitAssignedIdling); err != nil {
		return err
	}
	if s.unit == nil {
		return ErrNoUnitAssigned
	}
	if idx, _ := s.unit.OpenStage(); idx < 0 {
		return model.ErrNoOpenStage
	}

	hashes := s.stopRecording(ctx)

	next := s.unit.Clone()
	stage, err := next.EndSession(s.now(), hashes, extra, premature)
	if err != nil {
		return err
	}
	if err := s.repo.Unit.Save(ctx, next); err != nil {
		s.logger.Error("保存工序结束失败",
			zap.String("unit", next.InternalID),
			zap.Strings("video_hashes", hashes),
			zap.Error(err),
		)
		return persistenceError(err)
	}

	s.unit = next
	s.logger.Info("工序已结束",
		zap.String("unit", next.InternalID),
		zap.String("stage", stage.Name),
		zap.Bool("premature", premature),
		zap.String("unit_status", string(next.Status)),
	)
	s.commit(StateUnitAssignedIdling)
	return nil
}

// stopRecording 停止录像并发布录像文件，返回内容标识；任何失败只记录日志
func (s *workbenchService) stopRecording(ctx context.Context) []string {
	rec := s.recording
	s.recording = nil
	if rec == nil || s.collab.Recorder == nil {
		return nil
	}

	cardID := s.cardID()
	select {
	case <-rec.done:
	case <-time.After(orDefault(s.camera.StopWait, 15*time.Second)):
		s.logger.Warn("等待录像启动超时，放弃本次录像")
		go s.stopLateRecording(rec, cardID)
		return nil
	}
	if rec.err != nil || rec.id == "" {
		return nil
	}

	stopCtx, cancel := context.WithTimeout(ctx, orDefault(s.camera.Timeout, 10*time.Second))
	file, err := s.collab.Recorder.Stop(stopCtx, rec.id, cardID)
	cancel()
	if err != nil {
		s.logger.Warn("停止录像失败", zap.String("record_id", rec.id), zap.Error(err))
		s.messenger.Error("停止录像失败")
		return nil
	}
	if file == "" || s.collab.Publisher == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, orDefault(s.ipfs.Timeout, time.Minute))
	cid, _, err := s.collab.Publisher.Publish(pubCtx, cardID, file)
	cancel()
	if err != nil {
		s.logger.Warn("发布录像失败", zap.String("file", file), zap.Error(err))
		s.messenger.Error("录像发布失败，工序将不包含录像标识")
		return nil
	}
	return []string{cid}
}

// stopLateRecording 录像在放弃后才启动成功时补发停止，录像文件不再发布
func (s *workbenchService) stopLateRecording(rec *recording, cardID string) {
	<-rec.done
	if rec.err != nil || rec.id == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), orDefault(s.camera.Timeout, 10*time.Second))
	defer cancel()
	if _, err := s.collab.Recorder.Stop(ctx, rec.id, cardID); err != nil {
		s.logger.Warn("补发停止录像失败", zap.String("record_id", rec.id), zap.Error(err))
		return
	}
	s.logger.Info("已停止超时启动的录像", zap.String("record_id", rec.id))
}

// ═══════════════════════════════════════════════════════════
// 产品证书
// ═══════════════════════════════════════════════════════════

func (s *workbenchService) UploadCertificate(ctx context.Context) (resp *dto.CertificateResponse, err error) {
	ctx, end := s.begin(ctx, "UploadCertificate")
	defer func() { end(err) }()

	if s.unit == nil {
		return nil, ErrNoUnitAssigned
	}
	if s.employee == nil {
		return nil, ErrNoEmployeeLoggedIn
	}
	if idx, _ := s.unit.OpenStage(); idx >= 0 || s.state == StateProductionStageOngoing {
		return nil, ErrOperationOngoing
	}
	if s.certificates == nil {
		return nil, errors.New("证书服务未配置")
	}

	resp, err = s.certificates.Issue(ctx, s.unit, s.employee)
	if err != nil {
		return nil, err
	}

	next := s.unit.Clone()
	if resp.PassportCID != nil {
		next.PassportCID = resp.PassportCID
		next.PassportLink = resp.PassportLink
	}
	if resp.PassportShortURL != nil {
		next.PassportShortURL = resp.PassportShortURL
	}
	next.PublicationError = resp.PublicationError
	s.unit = next
	s.notifier.Broadcast(s.snapshotLocked())

	if resp.PublicationError == nil {
		s.messenger.Success("产品证书已生成")
	}
	return resp, nil
}

// ═══════════════════════════════════════════════════════════
// 扫码设备事件
// ═══════════════════════════════════════════════════════════

func (s *workbenchService) HandleHIDEvent(ctx context.Context, device, value string) (*dto.WorkbenchSnapshot, error) {
	switch device {
	case s.hid.RFIDReader:
		return s.HandleCardScan(ctx, value)
	case s.hid.BarcodeReader:
		return s.HandleBarcodeScan(ctx, value)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, device)
	}
}

func (s *workbenchService) HandleCardScan(ctx context.Context, cardID string) (snap *dto.WorkbenchSnapshot, err error) {
	ctx, end := s.begin(ctx, "HandleCardScan")
	defer func() { end(err) }()

	if s.employee != nil {
		err = s.logOut()
	} else {
		err = s.logIn(ctx, cardID)
	}
	if err != nil {
		return nil, err
	}
	return s.snapshotLocked(), nil
}

func (s *workbenchService) HandleBarcodeScan(ctx context.Context, code string) (snap *dto.WorkbenchSnapshot, err error) {
	ctx, end := s.begin(ctx, "HandleBarcodeScan")
	defer func() { end(err) }()

	if err = s.handleBarcode(ctx, code); err != nil {
		return nil, err
	}
	return s.snapshotLocked(), nil
}

func (s *workbenchService) handleBarcode(ctx context.Context, code string) error {
	switch s.state {
	case StateAwaitLogin:
		s.logger.Warn("无人登录，忽略扫码", zap.String("code", code))
		return ErrNoEmployeeLoggedIn
	case StateProductionStageOngoing:
		return s.endOperation(ctx, nil, false)
	}

	unit, err := s.loadUnit(ctx, code)
	if err != nil {
		return err
	}

	switch s.state {
	case StateAuthorizedIdling:
		return s.assignUnit(unit)
	case StateUnitAssignedIdling:
		// 先校验再移除，避免移除后新产品无法分配
		if !unit.Status.InWork() {
			return fmt.Errorf("%w: %s", model.ErrUnitNotInWork, unit.Status)
		}
		if err := s.removeUnit(); err != nil {
			return err
		}
		return s.assignUnit(unit)
	case StateGatherComponents:
		return s.assignComponent(ctx, unit)
	default:
		return forbidden(s.state, s.state)
	}
}

// ═══════════════════════════════════════════════════════════
// Shutdown
// ═══════════════════════════════════════════════════════════

func (s *workbenchService) Shutdown(ctx context.Context) (err error) {
	ctx, end := s.begin(ctx, "Shutdown")
	defer func() { end(err) }()

	var errs []error
	if s.state == StateProductionStageOngoing {
		if e := s.endOperation(ctx, map[string]interface{}{"ended_by": "shutdown"}, true); e != nil {
			s.logger.Error("关闭时结束工序失败", zap.Error(e))
			errs = append(errs, e)
		}
	}
	switch s.state {
	case StateUnitAssignedIdling:
		if e := s.removeUnit(); e != nil {
			errs = append(errs, e)
		}
	case StateGatherComponents:
		// 迁移表不允许从组件装配直接移除产品；关闭时放弃未完成的装配
		s.logger.Info("关闭时放弃未完成的组件装配", zap.String("unit", s.unit.InternalID))
		s.unit = nil
		s.commit(StateAuthorizedIdling)
	}
	if s.employee != nil && s.state == StateAuthorizedIdling {
		if e := s.logOut(); e != nil {
			errs = append(errs, e)
		}
	}

	s.logger.Info("工位已关闭", zap.String("state", string(s.state)))
	return errors.Join(errs...)
}
