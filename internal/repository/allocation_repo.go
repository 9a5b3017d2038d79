package repository

import (
	"context"

	"gorm.io/gorm"

	"acadflow/backend/internal/model"
)

// AllocationRepository master/section/instructor data access.
type AllocationRepository interface {
	CreateMaster(ctx context.Context, master *model.MasterAllocation) error
	GetMasterByID(ctx context.Context, id string) (*model.MasterAllocation, error)
	// GetMaster looks up the master for (semester, course).
	GetMaster(ctx context.Context, semesterID, courseCode string) (*model.MasterAllocation, error)
	// ListMasters returns all masters of a semester with course, sections
	// and section instructors (with their user rows) preloaded.
	ListMasters(ctx context.Context, semesterID string) ([]model.MasterAllocation, error)
	SetIC(ctx context.Context, masterID string, icEmail string) error

	CreateSection(ctx context.Context, section *model.AllocationSection) error
	// GetSection loads a section with its master, course and instructors.
	GetSection(ctx context.Context, sectionID string) (*model.AllocationSection, error)
	DeleteSection(ctx context.Context, sectionID string) error
	// ListSiblingSections returns same-type sections under one master,
	// ordered by creation time; section ordinals are derived from it.
	ListSiblingSections(ctx context.Context, masterID, sectionType string) ([]model.AllocationSection, error)

	// AddInstructor inserts the join row; a duplicate surfaces as
	// gorm.ErrDuplicatedKey.
	AddInstructor(ctx context.Context, row *model.SectionInstructor) error
	// RemoveInstructor deletes the join row, reporting rows affected.
	RemoveInstructor(ctx context.Context, sectionID, email string) (int64, error)
	// ListSectionsByInstructor returns every section the instructor holds
	// across all semesters, with master, course and co-instructors loaded.
	ListSectionsByInstructor(ctx context.Context, email string) ([]model.AllocationSection, error)
}

type allocationRepo struct {
	db *gorm.DB
}

// NewAllocationRepo builds the gorm-backed AllocationRepository.
func NewAllocationRepo(db *gorm.DB) AllocationRepository {
	return &allocationRepo{db: db}
}

func (r *allocationRepo) CreateMaster(ctx context.Context, master *model.MasterAllocation) error {
	return r.db.WithContext(ctx).Create(master).Error
}

func (r *allocationRepo) GetMasterByID(ctx context.Context, id string) (*model.MasterAllocation, error) {
	var master model.MasterAllocation
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("master_id = ?", id).
		First(&master).Error
	if err != nil {
		return nil, err
	}
	return &master, nil
}

func (r *allocationRepo) GetMaster(ctx context.Context, semesterID, courseCode string) (*model.MasterAllocation, error) {
	var master model.MasterAllocation
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("semester_id = ? AND course_code = ?", semesterID, courseCode).
		First(&master).Error
	if err != nil {
		return nil, err
	}
	return &master, nil
}

func (r *allocationRepo) ListMasters(ctx context.Context, semesterID string) ([]model.MasterAllocation, error) {
	var masters []model.MasterAllocation
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Sections.Instructors").
		Preload("Sections.Instructors.Instructor").
		Where("semester_id = ?", semesterID).
		Order("course_code ASC").
		Find(&masters).Error
	return masters, err
}

func (r *allocationRepo) SetIC(ctx context.Context, masterID string, icEmail string) error {
	return r.db.WithContext(ctx).
		Model(&model.MasterAllocation{}).
		Where("master_id = ?", masterID).
		Update("ic_email", icEmail).Error
}

func (r *allocationRepo) CreateSection(ctx context.Context, section *model.AllocationSection) error {
	return r.db.WithContext(ctx).Create(section).Error
}

func (r *allocationRepo) GetSection(ctx context.Context, sectionID string) (*model.AllocationSection, error) {
	var section model.AllocationSection
	err := r.db.WithContext(ctx).
		Preload("Master").
		Preload("Master.Course").
		Preload("Instructors").
		Preload("Instructors.Instructor").
		Where("section_id = ?", sectionID).
		First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *allocationRepo) DeleteSection(ctx context.Context, sectionID string) error {
	// Join rows cascade at the schema level.
	return r.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Delete(&model.AllocationSection{}).Error
}

func (r *allocationRepo) ListSiblingSections(ctx context.Context, masterID, sectionType string) ([]model.AllocationSection, error) {
	var sections []model.AllocationSection
	err := r.db.WithContext(ctx).
		Where("master_id = ? AND type = ?", masterID, sectionType).
		Order("created_at ASC").
		Find(&sections).Error
	return sections, err
}

func (r *allocationRepo) AddInstructor(ctx context.Context, row *model.SectionInstructor) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *allocationRepo) RemoveInstructor(ctx context.Context, sectionID, email string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("section_id = ? AND instructor_email = ?", sectionID, email).
		Delete(&model.SectionInstructor{})
	return res.RowsAffected, res.Error
}

func (r *allocationRepo) ListSectionsByInstructor(ctx context.Context, email string) ([]model.AllocationSection, error) {
	var sections []model.AllocationSection
	err := r.db.WithContext(ctx).
		Joins("JOIN section_instructors si ON si.section_id = allocation_sections.section_id").
		Where("si.instructor_email = ?", email).
		Preload("Master").
		Preload("Master.Course").
		Preload("Master.Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Instructors").
		Preload("Instructors.Instructor").
		Order("allocation_sections.created_at ASC").
		Find(&sections).Error
	return sections, err
}
