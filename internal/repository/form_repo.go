package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"acadflow/backend/internal/model"
)

// TemplateRepository form-template data access.
type TemplateRepository interface {
	// Create inserts the template and its fields in one transaction.
	Create(ctx context.Context, template *model.FormTemplate, fields []model.TemplateField) error
	GetByID(ctx context.Context, id string) (*model.FormTemplate, error)
	List(ctx context.Context) ([]model.FormTemplate, error)
}

type templateRepo struct {
	db *gorm.DB
}

// NewTemplateRepo builds the gorm-backed TemplateRepository.
func NewTemplateRepo(db *gorm.DB) TemplateRepository {
	return &templateRepo{db: db}
}

func (r *templateRepo) Create(ctx context.Context, template *model.FormTemplate, fields []model.TemplateField) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(template).Error; err != nil {
			return err
		}
		for i := range fields {
			fields[i].TemplateID = template.TemplateID
		}
		return tx.Create(&fields).Error
	})
}

func (r *templateRepo) GetByID(ctx context.Context, id string) (*model.FormTemplate, error) {
	var template model.FormTemplate
	err := r.db.WithContext(ctx).
		Preload("Fields", func(db *gorm.DB) *gorm.DB {
			return db.Where("form_id IS NULL").Order("ordinal ASC")
		}).
		Where("template_id = ?", id).
		First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepo) List(ctx context.Context) ([]model.FormTemplate, error) {
	var templates []model.FormTemplate
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&templates).Error
	return templates, err
}

// FormRepository published-form data access.
type FormRepository interface {
	// CreateWithFields inserts the form and its copied field rows in one
	// transaction, so a crash cannot leave a published form without fields.
	CreateWithFields(ctx context.Context, form *model.Form, fields []model.TemplateField) error
	GetByID(ctx context.Context, id string) (*model.Form, error)
	SetDeadline(ctx context.Context, formID string, deadline time.Time) error
	SetEmailMessageID(ctx context.Context, formID string, messageID string) error
}

type formRepo struct {
	db *gorm.DB
}

// NewFormRepo builds the gorm-backed FormRepository.
func NewFormRepo(db *gorm.DB) FormRepository {
	return &formRepo{db: db}
}

func (r *formRepo) CreateWithFields(ctx context.Context, form *model.Form, fields []model.TemplateField) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(form).Error; err != nil {
			return err
		}
		for i := range fields {
			fields[i].FieldID = ""
			fields[i].FormID = &form.FormID
		}
		return tx.Create(&fields).Error
	})
}

func (r *formRepo) GetByID(ctx context.Context, id string) (*model.Form, error) {
	var form model.Form
	err := r.db.WithContext(ctx).
		Preload("Fields", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordinal ASC")
		}).
		Where("form_id = ?", id).
		First(&form).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *formRepo) SetDeadline(ctx context.Context, formID string, deadline time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Form{}).
		Where("form_id = ?", formID).
		Update("deadline", deadline).Error
}

func (r *formRepo) SetEmailMessageID(ctx context.Context, formID string, messageID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Form{}).
		Where("form_id = ?", formID).
		Update("email_message_id", messageID).Error
}

// ResponseRepository form-response data access.
type ResponseRepository interface {
	// ReplaceForFields replaces a submitter's rows across every submitted
	// field in one transaction, so a resubmission is all-or-nothing.
	ReplaceForFields(ctx context.Context, formID, email string, rowsByField map[string][]model.FormResponse) error
	// ListByForm returns all responses with their template fields preloaded.
	ListByForm(ctx context.Context, formID string) ([]model.FormResponse, error)
	// DistinctSubmitters returns the emails of everyone who submitted at
	// least one response to the form.
	DistinctSubmitters(ctx context.Context, formID string) ([]string, error)
}

type responseRepo struct {
	db *gorm.DB
}

// NewResponseRepo builds the gorm-backed ResponseRepository.
func NewResponseRepo(db *gorm.DB) ResponseRepository {
	return &responseRepo{db: db}
}

func (r *responseRepo) ReplaceForFields(ctx context.Context, formID, email string, rowsByField map[string][]model.FormResponse) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for fieldID, rows := range rowsByField {
			err := tx.Where("form_id = ? AND template_field_id = ? AND submitted_by_email = ?",
				formID, fieldID, email).
				Delete(&model.FormResponse{}).Error
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				continue
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *responseRepo) ListByForm(ctx context.Context, formID string) ([]model.FormResponse, error) {
	var rows []model.FormResponse
	err := r.db.WithContext(ctx).
		Preload("TemplateField").
		Where("form_id = ?", formID).
		Order("preference ASC").
		Find(&rows).Error
	return rows, err
}

func (r *responseRepo) DistinctSubmitters(ctx context.Context, formID string) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).
		Model(&model.FormResponse{}).
		Where("form_id = ?", formID).
		Distinct("submitted_by_email").
		Pluck("submitted_by_email", &emails).Error
	return emails, err
}
