package repository

import (
	"context"

	"gorm.io/gorm"

	"acadflow/backend/internal/model"
)

// HandoutRepository downstream handout-request records.
type HandoutRepository interface {
	// CreateBatch inserts the requests in one transaction.
	CreateBatch(ctx context.Context, requests []model.HandoutRequest) error
}

type handoutRepo struct {
	db *gorm.DB
}

// NewHandoutRepo builds the gorm-backed HandoutRepository.
func NewHandoutRepo(db *gorm.DB) HandoutRepository {
	return &handoutRepo{db: db}
}

func (r *handoutRepo) CreateBatch(ctx context.Context, requests []model.HandoutRequest) error {
	if len(requests) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&requests).Error
	})
}

// TodoRepository dashboard reminder tasks.
type TodoRepository interface {
	CreateBatch(ctx context.Context, todos []model.Todo) error
	// CompleteByKind marks every open todo of a kind as completed.
	CompleteByKind(ctx context.Context, kind string) error
	// CompleteForAssignee marks a single assignee's open todos of a kind
	// as completed, e.g. after they submit their form.
	CompleteForAssignee(ctx context.Context, kind, assigneeEmail string) error
}

type todoRepo struct {
	db *gorm.DB
}

// NewTodoRepo builds the gorm-backed TodoRepository.
func NewTodoRepo(db *gorm.DB) TodoRepository {
	return &todoRepo{db: db}
}

func (r *todoRepo) CreateBatch(ctx context.Context, todos []model.Todo) error {
	if len(todos) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&todos).Error
	})
}

func (r *todoRepo) CompleteByKind(ctx context.Context, kind string) error {
	return r.db.WithContext(ctx).
		Model(&model.Todo{}).
		Where("kind = ? AND completed = ?", kind, false).
		Update("completed", true).Error
}

func (r *todoRepo) CompleteForAssignee(ctx context.Context, kind, assigneeEmail string) error {
	return r.db.WithContext(ctx).
		Model(&model.Todo{}).
		Where("kind = ? AND assignee_email = ? AND completed = ?", kind, assigneeEmail, false).
		Update("completed", true).Error
}

// NotificationRepository dashboard inbox records.
type NotificationRepository interface {
	// CreateBatch inserts the notifications in one transaction.
	CreateBatch(ctx context.Context, notifications []model.Notification) error
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo builds the gorm-backed NotificationRepository.
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) CreateBatch(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&notifications).Error
	})
}
