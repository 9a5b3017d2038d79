package model

// Offering categories.
const (
	OfferedAsCDC = "CDC" // core discipline course
	OfferedAsDEL = "DEL" // discipline elective
	OfferedAsHEL = "HEL" // humanities elective
)

// Offering audiences.
const (
	OfferedToFD  = "FD" // first degree
	OfferedToHD  = "HD" // higher degree
	OfferedToPhD = "PhD"
)

// Course — catalog entry, keyed by course code (e.g. "CS F211").
type Course struct {
	Code                string     `gorm:"type:varchar(20);primaryKey"   json:"code"`
	Name                string     `gorm:"type:varchar(255);not null"    json:"name"`
	LectureUnits        int        `gorm:"not null;default:0"            json:"lecture_units"`
	PracticalUnits      int        `gorm:"not null;default:0"            json:"practical_units"`
	TotalUnits          int        `gorm:"not null;default:0"            json:"total_units"`
	OfferedAs           string     `gorm:"type:varchar(10);not null"     json:"offered_as"` // CDC | DEL | HEL
	OfferedTo           string     `gorm:"type:varchar(10);not null"     json:"offered_to"` // FD | HD | PhD
	OfferedAlsoBy       StringList `gorm:"type:text;not null;default:''" json:"offered_also_by"`
	TTDCourseID         *string    `gorm:"column:ttd_course_id;type:varchar(50)" json:"ttd_course_id,omitempty"`
	MarkedForAllocation bool       `gorm:"not null;default:false"        json:"marked_for_allocation"`
	FetchedFromTTD      bool       `gorm:"column:fetched_from_ttd;not null;default:false" json:"fetched_from_ttd"`
	BaseModel
}

// TableName maps to courses.
func (Course) TableName() string { return "courses" }

// IsMultiDepartment reports whether other departments co-offer this course.
func (c *Course) IsMultiDepartment() bool {
	return len(c.OfferedAlsoBy) > 0
}

// UnitsFor returns the units a section of the given type carries.
// TUTORIAL sections contribute a flat single unit per instructor, so their
// course-level units are not consulted.
func (c *Course) UnitsFor(sectionType string) int {
	switch sectionType {
	case SectionTypeLecture:
		return c.LectureUnits
	case SectionTypePractical:
		return c.PracticalUnits
	default:
		return 1
	}
}
