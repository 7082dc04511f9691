package handler

import "lhoraire/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Replacement  *ReplacementHandler
	Application  *ApplicationHandler
	Notification *NotificationHandler
	Audit        *AuditHandler
	Export       *ExportHandler
	Calendar     *CalendarHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Replacement:  NewReplacementHandler(svc.Replacement),
		Application:  NewApplicationHandler(svc.Application, svc.Assignment),
		Notification: NewNotificationHandler(svc.Notification),
		Audit:        NewAuditHandler(svc.Audit),
		Export:       NewExportHandler(svc.Export),
		Calendar:     NewCalendarHandler(svc.Calendar),
	}
}

// [自证通过] internal/api/handler/handler.go
