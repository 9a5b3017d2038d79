package handler

import "acadflow/backend/internal/service"

// Handler aggregates all HTTP handlers.
type Handler struct {
	Auth       *AuthHandler
	Semester   *SemesterHandler
	Course     *CourseHandler
	Form       *FormHandler
	Allocation *AllocationHandler
}

// NewHandler wires the handler layer.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Semester:   NewSemesterHandler(svc.Semester),
		Course:     NewCourseHandler(svc.Course),
		Form:       NewFormHandler(svc.Form),
		Allocation: NewAllocationHandler(svc.Allocation, svc.Push, svc.Export),
	}
}
