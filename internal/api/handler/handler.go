package handler

import "feecc-workbench/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Workbench    *WorkbenchHandler
	Unit         *UnitHandler
	Schema       *SchemaHandler
	Employee     *EmployeeHandler
	Notification *NotificationHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Workbench:    NewWorkbenchHandler(svc.Workbench),
		Unit:         NewUnitHandler(svc.Workbench, svc.Unit),
		Schema:       NewSchemaHandler(svc.Unit),
		Employee:     NewEmployeeHandler(svc.Employee),
		Notification: NewNotificationHandler(svc.Messenger),
		Export:       NewExportHandler(svc.Export),
	}
}
