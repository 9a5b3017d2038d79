package model

// User types.
const (
	UserTypeFaculty = "faculty"
	UserTypePhD     = "phd"
	UserTypeStaff   = "staff"
)

// PhD enrolment kinds; only full-time PhD students may be allocated sections.
const (
	PhDTypeFullTime = "full-time"
	PhDTypePartTime = "part-time"
)

// User — departmental member, keyed by institute email.
type User struct {
	Email        string     `gorm:"type:varchar(255);primaryKey"    json:"email"`
	Name         string     `gorm:"type:varchar(255);not null"      json:"name"`
	PasswordHash string     `gorm:"type:varchar(255);not null"      json:"-"`
	Type         string     `gorm:"type:varchar(20);not null"       json:"type"` // faculty | phd | staff
	PhDType      *string    `gorm:"column:phd_type;type:varchar(20)" json:"phd_type,omitempty"`
	PSRN         *string    `gorm:"column:psrn;type:varchar(20)"    json:"psrn,omitempty"`   // faculty id in the institute ERP
	ERPID        *string    `gorm:"column:erp_id;type:varchar(20)"  json:"erp_id,omitempty"` // phd id in the institute ERP
	Roles        StringList `gorm:"type:text;not null;default:''"   json:"roles"`
	Deactivated  bool       `gorm:"not null;default:false"          json:"deactivated"`
	BaseModel
}

// TableName maps to users.
func (User) TableName() string { return "users" }

// ExternalID resolves the identifier the timetable division knows this
// instructor by: PSRN for faculty, ERP id for PhD students.
func (u *User) ExternalID() string {
	if u.Type == UserTypeFaculty && u.PSRN != nil {
		return *u.PSRN
	}
	if u.Type == UserTypePhD && u.ERPID != nil {
		return *u.ERPID
	}
	return ""
}
