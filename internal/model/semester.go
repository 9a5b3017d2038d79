package model

import "time"

// Semester types, ordered so that (academic_year DESC, semester_type DESC)
// yields the latest semester first.
const (
	SemesterTypeOdd    = 1
	SemesterTypeEven   = 2
	SemesterTypeSummer = 3
)

// SemesterTypeName renders the numeric type for responses.
func SemesterTypeName(t int) string {
	switch t {
	case SemesterTypeOdd:
		return "ODD"
	case SemesterTypeEven:
		return "EVEN"
	case SemesterTypeSummer:
		return "SUMMER"
	default:
		return "UNKNOWN"
	}
}

// Allocation lifecycle states. Transitions are strictly forward:
// notStarted → formCollection → inAllocation → completed.
const (
	AllocationNotStarted     = "notStarted"
	AllocationFormCollection = "formCollection"
	AllocationInProgress     = "inAllocation"
	AllocationCompleted      = "completed"
)

var allocationStateRank = map[string]int{
	AllocationNotStarted:     0,
	AllocationFormCollection: 1,
	AllocationInProgress:     2,
	AllocationCompleted:      3,
}

// CanTransition reports whether from → to is a legal single step.
func CanTransition(from, to string) bool {
	fr, ok1 := allocationStateRank[from]
	tr, ok2 := allocationStateRank[to]
	return ok1 && ok2 && tr == fr+1
}

// Semester — one allocation cycle. The "latest" semester, ordered by
// (academic_year DESC, semester_type DESC), is the implicit subject of every
// lifecycle and allocation operation.
type Semester struct {
	SemesterID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"semester_id"`
	AcademicYear       int        `gorm:"not null"                                       json:"academic_year"`
	SemesterType       int        `gorm:"not null"                                       json:"semester_type"` // 1 ODD | 2 EVEN | 3 SUMMER
	StartDate          time.Time  `gorm:"type:date;not null"                             json:"start_date"`
	EndDate            time.Time  `gorm:"type:date;not null"                             json:"end_date"`
	AllocationDeadline *time.Time `json:"allocation_deadline,omitempty"`
	AllocationStatus   string     `gorm:"type:varchar(20);not null;default:'notStarted'" json:"allocation_status"`
	FormID             *string    `gorm:"type:uuid"                                      json:"form_id,omitempty"`
	HODAtStart         string     `gorm:"column:hod_at_start;type:varchar(255);not null;default:''" json:"hod_at_start"`
	DCAConvenerAtStart string     `gorm:"column:dca_convener_at_start;type:varchar(255);not null;default:''" json:"dca_convener_at_start"`
	BaseModel

	Form *Form `gorm:"foreignKey:FormID;references:FormID" json:"form,omitempty"`
}

// TableName maps to semesters.
func (Semester) TableName() string { return "semesters" }
