package repository

import (
	"context"

	"gorm.io/gorm"

	"acadflow/backend/internal/model"
)

// UserRepository user data access.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// ListActiveByTypes returns non-deactivated users of the given types.
	ListActiveByTypes(ctx context.Context, types []string) ([]model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo builds the gorm-backed UserRepository.
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListActiveByTypes(ctx context.Context, types []string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("deactivated = ?", false).
		Where("type IN ?", types).
		Order("email ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Order("email ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}
