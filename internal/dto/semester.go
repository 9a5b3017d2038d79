package dto

// ── Semester DTOs ──

// CreateSemesterRequest starts a new allocation cycle.
type CreateSemesterRequest struct {
	AcademicYear int    `json:"academic_year" binding:"required,min=2000,max=2100"`
	SemesterType string `json:"semester_type" binding:"required,oneof=ODD EVEN SUMMER"`
	StartDate    string `json:"start_date"    binding:"required"` // "2026-08-01"
	EndDate      string `json:"end_date"      binding:"required"` // "2026-12-15"
	HODEmail     string `json:"hod_email"     binding:"required,email"`
	DCAConvener  string `json:"dca_convener"  binding:"required,email"`
}

// SemesterResponse semester details. Minimal requests carry only the
// identity and lifecycle fields.
type SemesterResponse struct {
	ID                 string         `json:"id"`
	AcademicYear       int            `json:"academic_year"`
	SemesterType       string         `json:"semester_type"`
	StartDate          string         `json:"start_date,omitempty"`
	EndDate            string         `json:"end_date,omitempty"`
	AllocationDeadline *string        `json:"allocation_deadline,omitempty"`
	AllocationStatus   string         `json:"allocation_status"`
	FormID             *string        `json:"form_id,omitempty"`
	HODAtStart         string         `json:"hod_at_start,omitempty"`
	DCAConvenerAtStart string         `json:"dca_convener_at_start,omitempty"`
	Stats              *SemesterStats `json:"stats,omitempty"`
}

// SemesterStats response-collection aggregates, returned when requested.
type SemesterStats struct {
	EligibleCount  int      `json:"eligible_count"`
	RespondedCount int      `json:"responded_count"`
	NotResponded   []string `json:"not_responded"` // emails of eligible users with no response yet
}

// MarkCoursesRequest toggles markedForAllocation on the listed courses.
type MarkCoursesRequest struct {
	CourseCodes []string `json:"course_codes" binding:"required,min=1,unique"`
	Marked      bool     `json:"marked"`
}

// PublishFormRequest opens form collection for the latest semester.
type PublishFormRequest struct {
	Deadline  string `json:"deadline"   binding:"required"` // RFC 3339
	EmailBody string `json:"email_body" binding:"required"`
}
