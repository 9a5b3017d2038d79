package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"acadflow/backend/internal/model"
)

// SemesterRepository semester data access. Latest() is the single source of
// the "current allocation cycle" notion; no cached singleton exists anywhere.
type SemesterRepository interface {
	Create(ctx context.Context, semester *model.Semester) error
	GetByID(ctx context.Context, id string) (*model.Semester, error)
	// Latest returns the semester ranked first by
	// (academic_year DESC, semester_type DESC).
	Latest(ctx context.Context) (*model.Semester, error)
	List(ctx context.Context) ([]model.Semester, error)
	Update(ctx context.Context, semester *model.Semester) error
	// ExistsIncomplete reports whether any semester has not yet completed
	// its allocation lifecycle.
	ExistsIncomplete(ctx context.Context) (bool, error)
	// TransitionWithFormDeadline persists a lifecycle transition together
	// with the linked form's deadline in one transaction, so a crash cannot
	// leave the semester transitioned without its deadline.
	TransitionWithFormDeadline(ctx context.Context, semester *model.Semester, formID string, deadline time.Time) error
}

type semesterRepo struct {
	db *gorm.DB
}

// NewSemesterRepo builds the gorm-backed SemesterRepository.
func NewSemesterRepo(db *gorm.DB) SemesterRepository {
	return &semesterRepo{db: db}
}

func (r *semesterRepo) Create(ctx context.Context, semester *model.Semester) error {
	return r.db.WithContext(ctx).Create(semester).Error
}

func (r *semesterRepo) GetByID(ctx context.Context, id string) (*model.Semester, error) {
	var semester model.Semester
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", id).
		First(&semester).Error
	if err != nil {
		return nil, err
	}
	return &semester, nil
}

func (r *semesterRepo) Latest(ctx context.Context) (*model.Semester, error) {
	var semester model.Semester
	err := r.db.WithContext(ctx).
		Order("academic_year DESC, semester_type DESC").
		First(&semester).Error
	if err != nil {
		return nil, err
	}
	return &semester, nil
}

func (r *semesterRepo) List(ctx context.Context) ([]model.Semester, error) {
	var semesters []model.Semester
	err := r.db.WithContext(ctx).
		Order("academic_year DESC, semester_type DESC").
		Find(&semesters).Error
	return semesters, err
}

func (r *semesterRepo) Update(ctx context.Context, semester *model.Semester) error {
	return r.db.WithContext(ctx).Save(semester).Error
}

func (r *semesterRepo) TransitionWithFormDeadline(ctx context.Context, semester *model.Semester, formID string, deadline time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(semester).Error; err != nil {
			return err
		}
		return tx.Model(&model.Form{}).
			Where("form_id = ?", formID).
			Update("deadline", deadline).Error
	})
}

func (r *semesterRepo) ExistsIncomplete(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Semester{}).
		Where("allocation_status <> ?", model.AllocationCompleted).
		Count(&count).Error
	return count > 0, err
}
