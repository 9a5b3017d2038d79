package repository

import "gorm.io/gorm"

// Repository aggregates all repository interfaces.
type Repository struct {
	User         UserRepository
	Course       CourseRepository
	Semester     SemesterRepository
	Template     TemplateRepository
	Form         FormRepository
	Response     ResponseRepository
	Allocation   AllocationRepository
	Handout      HandoutRepository
	Todo         TodoRepository
	Notification NotificationRepository
}

// NewRepository wires the gorm-backed repositories.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:         NewUserRepo(db),
		Course:       NewCourseRepo(db),
		Semester:     NewSemesterRepo(db),
		Template:     NewTemplateRepo(db),
		Form:         NewFormRepo(db),
		Response:     NewResponseRepo(db),
		Allocation:   NewAllocationRepo(db),
		Handout:      NewHandoutRepo(db),
		Todo:         NewTodoRepo(db),
		Notification: NewNotificationRepo(db),
	}
}
