package dto

// ── Form engine DTOs ──

// TemplateFieldRequest one field of a new template. Kind decides which
// payload members are required; the service validates the union.
type TemplateFieldRequest struct {
	Label           string  `json:"label" binding:"required,max=255"`
	Kind            string  `json:"kind"  binding:"required,oneof=TEACHING_ALLOCATION PREFERENCE"`
	PreferenceCount *int    `json:"preference_count" binding:"omitempty,min=1,max=20"`
	PreferenceType  *string `json:"preference_type"  binding:"omitempty,oneof=LECTURE TUTORIAL PRACTICAL"`
	CourseGroup     *string `json:"course_group"     binding:"omitempty,oneof=FD HD PhD"`
	ViewableByRole  *string `json:"viewable_by_role" binding:"omitempty,max=50"`
}

// CreateTemplateRequest new reusable template.
type CreateTemplateRequest struct {
	Name   string                 `json:"name"   binding:"required,max=255"`
	Fields []TemplateFieldRequest `json:"fields" binding:"required,min=1,dive"`
}

// TemplateFieldResponse one field, template-level or form-level.
type TemplateFieldResponse struct {
	FieldID         string  `json:"field_id"`
	Label           string  `json:"label"`
	Kind            string  `json:"kind"`
	Ordinal         int     `json:"ordinal"`
	PreferenceCount *int    `json:"preference_count,omitempty"`
	PreferenceType  *string `json:"preference_type,omitempty"`
	CourseGroup     *string `json:"course_group,omitempty"`
	ViewableByRole  *string `json:"viewable_by_role,omitempty"`
}

// TemplateResponse template with ordered fields.
type TemplateResponse struct {
	TemplateID string                  `json:"template_id"`
	Name       string                  `json:"name"`
	Fields     []TemplateFieldResponse `json:"fields"`
}

// CreateFormRequest instantiates a template for the latest semester.
type CreateFormRequest struct {
	TemplateID  string `json:"template_id"  binding:"required,uuid"`
	PublishRole string `json:"publish_role" binding:"omitempty,max=50"`
}

// FormResponseView a form as seen by one requester, after visibility
// filtering.
type FormResponseView struct {
	FormID     string                  `json:"form_id"`
	SemesterID string                  `json:"semester_id"`
	Deadline   *string                 `json:"deadline,omitempty"`
	Fields     []TemplateFieldResponse `json:"fields"`
	Preview    bool                    `json:"preview"` // true when the caller sees all fields via allocation:write
}

// PreferenceEntry one ranked course choice inside a submission.
type PreferenceEntry struct {
	CourseCode         string `json:"course_code" binding:"required"`
	Preference         int    `json:"preference"  binding:"required,min=1"`
	TakenConsecutively bool   `json:"taken_consecutively"`
}

// FieldSubmission responses for one template field — exactly one arm of the
// union is set, matching the field kind.
type FieldSubmission struct {
	TemplateFieldID    string            `json:"template_field_id" binding:"required,uuid"`
	Preferences        []PreferenceEntry `json:"preferences"        binding:"omitempty,dive"`
	TeachingAllocation *float64          `json:"teaching_allocation" binding:"omitempty,min=0,max=100"`
}

// RegisterResponseRequest submits a user's answers for a form.
type RegisterResponseRequest struct {
	Fields []FieldSubmission `json:"fields" binding:"required,min=1,dive"`
}

// RankedPreference one submitter's stated preference for a
// (course, sectionType) pair.
type RankedPreference struct {
	SubmittedByEmail   string `json:"submitted_by_email"`
	SubmitterName      string `json:"submitter_name,omitempty"`
	CourseCode         string `json:"course_code"`
	Preference         *int   `json:"preference,omitempty"` // nil for instructors with no submitted preference
	TakenConsecutively bool   `json:"taken_consecutively"`
}
