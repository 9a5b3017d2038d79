package repository

import (
	"context"

	"gorm.io/gorm"

	"acadflow/backend/internal/model"
)

// CourseRepository course catalog data access.
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByCode(ctx context.Context, code string) (*model.Course, error)
	List(ctx context.Context, markedOnly bool) ([]model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, code string) error
	// SetMarked toggles markedForAllocation on the given codes, all or
	// nothing: when any code does not exist the whole update rolls back
	// and gorm.ErrRecordNotFound is returned.
	SetMarked(ctx context.Context, codes []string, marked bool) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo builds the gorm-backed CourseRepository.
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByCode(ctx context.Context, code string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context, markedOnly bool) ([]model.Course, error) {
	q := r.db.WithContext(ctx).Order("code ASC")
	if markedOnly {
		q = q.Where("marked_for_allocation = ?", true)
	}
	var courses []model.Course
	err := q.Find(&courses).Error
	return courses, err
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepo) Delete(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Where("code = ?", code).
		Delete(&model.Course{}).Error
}

func (r *courseRepo) SetMarked(ctx context.Context, codes []string, marked bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Course{}).
			Where("code IN ?", codes).
			Update("marked_for_allocation", marked)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(codes)) {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
