package model

import "time"

// Section types.
const (
	SectionTypeLecture   = "LECTURE"
	SectionTypeTutorial  = "TUTORIAL"
	SectionTypePractical = "PRACTICAL"
)

// SectionTypeLetter returns the single-letter prefix used in TTD section
// labels: L, T or P.
func SectionTypeLetter(sectionType string) string {
	switch sectionType {
	case SectionTypeLecture:
		return "L"
	case SectionTypeTutorial:
		return "T"
	case SectionTypePractical:
		return "P"
	default:
		return "?"
	}
}

// ValidSectionType reports whether s is one of the three section types.
func ValidSectionType(s string) bool {
	return s == SectionTypeLecture || s == SectionTypeTutorial || s == SectionTypePractical
}

// Per-course allocation status values, derived on read.
const (
	CourseStatusNotStarted = "Not Started"
	CourseStatusPending    = "Pending"
	CourseStatusAllocated  = "Allocated"
)

// MasterAllocation — the per-(semester, course) allocation record owning all
// of that course's sections for the term.
type MasterAllocation struct {
	MasterID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"master_id"`
	SemesterID string  `gorm:"type:uuid;not null"                             json:"semester_id"`
	CourseCode string  `gorm:"type:varchar(20);not null"                      json:"course_code"`
	ICEmail    *string `gorm:"column:ic_email;type:varchar(255)"              json:"ic_email,omitempty"`
	BaseModel

	Course   *Course             `gorm:"foreignKey:CourseCode;references:Code" json:"course,omitempty"`
	Sections []AllocationSection `gorm:"foreignKey:MasterID"                   json:"sections,omitempty"`
}

// TableName maps to master_allocations.
func (MasterAllocation) TableName() string { return "master_allocations" }

// AllocationSection — one teaching unit of a course, independently staffed.
// Its ordinal within (master, type) is derived from created_at ordering and
// never stored.
type AllocationSection struct {
	SectionID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"section_id"`
	MasterID        string    `gorm:"type:uuid;not null"                             json:"master_id"`
	Type            string    `gorm:"type:varchar(10);not null"                      json:"type"` // LECTURE | TUTORIAL | PRACTICAL
	TimetableRoomID *string   `gorm:"type:varchar(50)"                               json:"timetable_room_id,omitempty"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	Master      *MasterAllocation   `gorm:"foreignKey:MasterID;references:MasterID" json:"master,omitempty"`
	Instructors []SectionInstructor `gorm:"foreignKey:SectionID"                    json:"instructors,omitempty"`
}

// TableName maps to allocation_sections.
func (AllocationSection) TableName() string { return "allocation_sections" }

// SectionInstructor — join row assigning one instructor to one section.
// The (section_id, instructor_email) primary key is the concurrency guard
// against double assignment.
type SectionInstructor struct {
	SectionID       string    `gorm:"type:uuid;primaryKey"        json:"section_id"`
	InstructorEmail string    `gorm:"type:varchar(255);primaryKey" json:"instructor_email"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Instructor *User `gorm:"foreignKey:InstructorEmail;references:Email" json:"instructor,omitempty"`
}

// TableName maps to section_instructors.
func (SectionInstructor) TableName() string { return "section_instructors" }

// HandoutRequest — downstream record emitted when allocation completes, one
// per non-PhD course, consumed by the handout-approval module.
type HandoutRequest struct {
	RequestID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	SemesterID string    `gorm:"type:uuid;not null"                             json:"semester_id"`
	CourseCode string    `gorm:"type:varchar(20);not null"                      json:"course_code"`
	ICEmail    *string   `gorm:"column:ic_email;type:varchar(255)"              json:"ic_email,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName maps to handout_requests.
func (HandoutRequest) TableName() string { return "handout_requests" }

// Todo — reminder task surfaced on a user's dashboard.
type Todo struct {
	TodoID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"todo_id"`
	AssigneeEmail string     `gorm:"type:varchar(255);not null"                     json:"assignee_email"`
	Kind          string     `gorm:"type:varchar(50);not null"                      json:"kind"`
	Title         string     `gorm:"type:varchar(255);not null"                     json:"title"`
	Link          string     `gorm:"type:varchar(255);not null;default:''"          json:"link"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	Completed     bool       `gorm:"not null;default:false"                         json:"completed"`
	CreatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName maps to todos.
func (Todo) TableName() string { return "todos" }
