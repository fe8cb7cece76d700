package service

import (
	"go.uber.org/zap"

	"feecc-workbench/config"
	"feecc-workbench/internal/repository"
	"feecc-workbench/pkg/worker"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Workbench   WorkbenchService
	Certificate CertificateService
	Unit        UnitService
	Employee    EmployeeService
	Export      ExportService

	Notifier  *StateNotifier
	Messenger *Messenger
}

// Deps 外部依赖：协作服务、后台任务池与快照镜像
type Deps struct {
	Collaborators Collaborators
	Pool          *worker.Pool
	Mirror        StateMirror
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	deps Deps,
	logger *zap.Logger,
) *Service {
	notifier := NewStateNotifier(cfg.Workbench.Number, deps.Mirror, logger)
	messenger := NewMessenger(logger)
	certificates := NewCertificateService(cfg, repo, deps.Collaborators, deps.Pool, messenger, logger)
	workbench := NewWorkbenchService(cfg, repo, deps.Collaborators, certificates, notifier, messenger, logger)

	return &Service{
		Workbench:   workbench,
		Certificate: certificates,
		Unit:        NewUnitService(repo, workbench, logger),
		Employee:    NewEmployeeService(repo, logger),
		Export:      NewExportService(repo, logger),
		Notifier:    notifier,
		Messenger:   messenger,
	}
}
