package handler

import (
	"github.com/gin-gonic/gin"

	"acadflow/backend/internal/dto"
	"acadflow/backend/internal/service"
	"acadflow/backend/pkg/response"
)

// SemesterHandler allocation lifecycle endpoints.
type SemesterHandler struct {
	semesterSvc service.SemesterService
}

// NewSemesterHandler builds the SemesterHandler.
func NewSemesterHandler(semesterSvc service.SemesterService) *SemesterHandler {
	return &SemesterHandler{semesterSvc: semesterSvc}
}

// GetLatest
// GET /api/v1/semesters/latest?minimal=true&stats=true
// minimal wins over stats when both are set.
func (h *SemesterHandler) GetLatest(c *gin.Context) {
	minimal := c.Query("minimal") == "true"
	withStats := c.Query("stats") == "true"
	result, err := h.semesterSvc.GetLatest(c.Request.Context(), minimal, withStats)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Create
// POST /api/v1/semesters
func (h *SemesterHandler) Create(c *gin.Context) {
	var req dto.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.semesterSvc.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// MarkCourses
// PUT /api/v1/semesters/latest/courses
func (h *SemesterHandler) MarkCourses(c *gin.Context) {
	var req dto.MarkCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	if err := h.semesterSvc.MarkCourses(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}

// PublishForm
// POST /api/v1/semesters/:id/publish-form
func (h *SemesterHandler) PublishForm(c *gin.Context) {
	var req dto.PublishFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	if err := h.semesterSvc.PublishForm(c.Request.Context(), c.Param("id"), &req); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}

// EndForm
// POST /api/v1/semesters/:id/end-form
func (h *SemesterHandler) EndForm(c *gin.Context) {
	if err := h.semesterSvc.EndForm(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}

// EndAllocation
// POST /api/v1/semesters/:id/end-allocation
func (h *SemesterHandler) EndAllocation(c *gin.Context) {
	if err := h.semesterSvc.EndAllocation(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}
