package dto

// ── Course catalog DTOs ──

// CreateCourseRequest adds a catalog entry.
type CreateCourseRequest struct {
	Code           string   `json:"code"            binding:"required,max=20"`
	Name           string   `json:"name"            binding:"required,max=255"`
	LectureUnits   int      `json:"lecture_units"   binding:"min=0"`
	PracticalUnits int      `json:"practical_units" binding:"min=0"`
	TotalUnits     int      `json:"total_units"     binding:"min=0"`
	OfferedAs      string   `json:"offered_as"      binding:"required,oneof=CDC DEL HEL"`
	OfferedTo      string   `json:"offered_to"      binding:"required,oneof=FD HD PhD"`
	OfferedAlsoBy  []string `json:"offered_also_by"`
	TTDCourseID    *string  `json:"ttd_course_id"`
}

// UpdateCourseRequest partial catalog update.
type UpdateCourseRequest struct {
	Name           *string  `json:"name"            binding:"omitempty,max=255"`
	LectureUnits   *int     `json:"lecture_units"   binding:"omitempty,min=0"`
	PracticalUnits *int     `json:"practical_units" binding:"omitempty,min=0"`
	TotalUnits     *int     `json:"total_units"     binding:"omitempty,min=0"`
	OfferedAs      *string  `json:"offered_as"      binding:"omitempty,oneof=CDC DEL HEL"`
	OfferedTo      *string  `json:"offered_to"      binding:"omitempty,oneof=FD HD PhD"`
	OfferedAlsoBy  []string `json:"offered_also_by"`
	TTDCourseID    *string  `json:"ttd_course_id"`
}

// CourseResponse catalog entry.
type CourseResponse struct {
	Code                string   `json:"code"`
	Name                string   `json:"name"`
	LectureUnits        int      `json:"lecture_units"`
	PracticalUnits      int      `json:"practical_units"`
	TotalUnits          int      `json:"total_units"`
	OfferedAs           string   `json:"offered_as"`
	OfferedTo           string   `json:"offered_to"`
	OfferedAlsoBy       []string `json:"offered_also_by"`
	TTDCourseID         *string  `json:"ttd_course_id,omitempty"`
	MarkedForAllocation bool     `json:"marked_for_allocation"`
	FetchedFromTTD      bool     `json:"fetched_from_ttd"`
}
