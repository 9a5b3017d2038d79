package model

import "time"

// Template field kinds — a closed union. TEACHING_ALLOCATION carries a single
// numeric percentage and is visible only to faculty; PREFERENCE carries a
// ranked list of course choices for one section type.
const (
	FieldKindTeachingAllocation = "TEACHING_ALLOCATION"
	FieldKindPreference         = "PREFERENCE"
)

// FormTemplate — reusable field layout for preference forms.
type FormTemplate struct {
	TemplateID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"template_id"`
	Name       string `gorm:"type:varchar(255);not null"                     json:"name"`
	BaseModel

	Fields []TemplateField `gorm:"foreignKey:TemplateID" json:"fields,omitempty"`
}

// TableName maps to form_templates.
func (FormTemplate) TableName() string { return "form_templates" }

// TemplateField — one field of a template. Fields copied into a published
// form carry the owning FormID; template-level fields leave it nil.
type TemplateField struct {
	FieldID    string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"field_id"`
	TemplateID string  `gorm:"type:uuid;not null"                             json:"template_id"`
	FormID     *string `gorm:"type:uuid"                                      json:"form_id,omitempty"`
	Label      string  `gorm:"type:varchar(255);not null"                     json:"label"`
	Kind       string  `gorm:"type:varchar(30);not null"                      json:"kind"` // TEACHING_ALLOCATION | PREFERENCE
	Ordinal    int     `gorm:"not null;default:0"                             json:"ordinal"`

	// PREFERENCE payload.
	PreferenceCount *int    `gorm:"" json:"preference_count,omitempty"`
	PreferenceType  *string `gorm:"type:varchar(10)" json:"preference_type,omitempty"` // LECTURE | TUTORIAL | PRACTICAL
	CourseGroup     *string `gorm:"type:varchar(10)" json:"course_group,omitempty"`    // optional offered_to restriction

	// Visibility: nil means visible to everyone the form was published to.
	ViewableByRole *string `gorm:"type:varchar(50)" json:"viewable_by_role,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName maps to template_fields.
func (TemplateField) TableName() string { return "template_fields" }

// Form — a template instantiated for one semester.
type Form struct {
	FormID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"form_id"`
	TemplateID     string     `gorm:"type:uuid;not null"                             json:"template_id"`
	SemesterID     string     `gorm:"type:uuid;not null"                             json:"semester_id"`
	PublishRole    string     `gorm:"type:varchar(50);not null;default:'faculty'"    json:"publish_role"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	EmailMessageID string     `gorm:"type:varchar(255);not null;default:''"          json:"email_message_id"`
	BaseModel

	Fields    []TemplateField `gorm:"foreignKey:FormID"   json:"fields,omitempty"`
	Responses []FormResponse  `gorm:"foreignKey:FormID"   json:"responses,omitempty"`
}

// TableName maps to forms.
func (Form) TableName() string { return "forms" }

// IsOpen reports whether new submissions are still accepted.
func (f *Form) IsOpen(now time.Time) bool {
	return f.Deadline == nil || now.Before(*f.Deadline)
}

// FormResponse — one row per (submitter, field, rank slot). Preference rows
// set CourseCode and Preference; teaching-allocation rows set
// TeachingAllocation only. Within one field and submitter, Preference values
// are unique and contiguous from 1.
type FormResponse struct {
	ResponseID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"response_id"`
	FormID             string    `gorm:"type:uuid;not null"                             json:"form_id"`
	TemplateFieldID    string    `gorm:"type:uuid;not null"                             json:"template_field_id"`
	SubmittedByEmail   string    `gorm:"type:varchar(255);not null"                     json:"submitted_by_email"`
	CourseCode         *string   `gorm:"type:varchar(20)"                               json:"course_code,omitempty"`
	Preference         *int      `json:"preference,omitempty"` // 1 = most preferred
	TakenConsecutively bool      `gorm:"not null;default:false"                         json:"taken_consecutively"`
	TeachingAllocation *float64  `gorm:"type:numeric(5,2)"                              json:"teaching_allocation,omitempty"`
	CreatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	TemplateField *TemplateField `gorm:"foreignKey:TemplateFieldID;references:FieldID" json:"template_field,omitempty"`
}

// TableName maps to form_responses.
func (FormResponse) TableName() string { return "form_responses" }
