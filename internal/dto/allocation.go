package dto

// ── Allocation engine DTOs ──

// CreateSectionRequest adds a section under a course's master allocation in
// the latest semester. The master is created on first use.
type CreateSectionRequest struct {
	CourseCode      string  `json:"course_code" binding:"required"`
	Type            string  `json:"type"        binding:"required,oneof=LECTURE TUTORIAL PRACTICAL"`
	TimetableRoomID *string `json:"timetable_room_id"`
}

// SectionResponse one section with its derived ordinal.
type SectionResponse struct {
	SectionID       string   `json:"section_id"`
	MasterID        string   `json:"master_id"`
	CourseCode      string   `json:"course_code"`
	Type            string   `json:"type"`
	Number          int      `json:"number"` // 1-based within (master, type), by creation order
	TimetableRoomID *string  `json:"timetable_room_id,omitempty"`
	Instructors     []string `json:"instructors"`
}

// CourseAllocationStatus derived per-course allocation progress for the
// latest semester.
type CourseAllocationStatus struct {
	CourseCode string            `json:"course_code"`
	CourseName string            `json:"course_name"`
	Status     string            `json:"status"` // Not Started | Pending | Allocated
	ICEmail    *string           `json:"ic_email,omitempty"`
	Sections   []SectionResponse `json:"sections"`
}

// AssignInstructorRequest assigns an instructor to a section.
type AssignInstructorRequest struct {
	InstructorEmail string `json:"instructor_email" binding:"required,email"`
}

// SetICRequest sets the instructor-in-charge on a master allocation.
type SetICRequest struct {
	ICEmail string `json:"ic_email" binding:"required,email"`
}

// CandidateResponse one eligible instructor for a course+sectionType,
// annotated with their submitted preference rank (nil if none).
type CandidateResponse struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Preference *int   `json:"preference,omitempty"`
}

// InstructorSectionDetail one section an instructor holds, with enough
// context for the details dialog.
type InstructorSectionDetail struct {
	SectionID  string  `json:"section_id"`
	CourseCode string  `json:"course_code"`
	CourseName string  `json:"course_name"`
	Type       string  `json:"type"`
	Number     int     `json:"number"`
	SemesterID string  `json:"semester_id"`
	Load       float64 `json:"load"`
}

// InstructorAllocationDetails sections grouped by type, split into current
// and past relative to the latest semester.
type InstructorAllocationDetails struct {
	Email             string                               `json:"email"`
	Name              string                               `json:"name"`
	TotalLoad         float64                              `json:"total_load"`
	CurrentAllocation map[string][]InstructorSectionDetail `json:"current_allocation"` // keyed by section type
	PastAllocation    map[string][]InstructorSectionDetail `json:"past_allocation"`
}

// LoadMatrixCell one instructor's load for one (course, sectionType) row.
// Display renders zero loads as "NA".
type LoadMatrixCell struct {
	Email string  `json:"email"`
	Load  float64 `json:"load"`
	NA    bool    `json:"na"`
}

// LoadMatrixRow one (course, sectionType) row of the matrix.
type LoadMatrixRow struct {
	CourseCode string           `json:"course_code"`
	Type       string           `json:"type"`
	Cells      []LoadMatrixCell `json:"cells"`
}

// LoadMatrixResponse the full credit-load matrix with a totals row.
type LoadMatrixResponse struct {
	Instructors []string         `json:"instructors"` // column order
	Rows        []LoadMatrixRow  `json:"rows"`
	Totals      []LoadMatrixCell `json:"totals"`
}

// PushRequest pushes the completed allocation to the timetable division.
type PushRequest struct {
	SendMultiDepartmentCourses bool   `json:"send_multi_department_courses"`
	IdentityToken              string `json:"identity_token" binding:"required"`
}

// PushCourseResult per-course outcome of the fan-out push.
type PushCourseResult struct {
	CourseCode string `json:"course_code"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

// PushResponse aggregate push outcome.
type PushResponse struct {
	Pushed  int                `json:"pushed"`
	Failed  int                `json:"failed"`
	Skipped []string           `json:"skipped"` // course codes excluded from the push set
	Results []PushCourseResult `json:"results"`
}
