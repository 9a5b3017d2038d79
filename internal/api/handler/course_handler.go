package handler

import (
	"github.com/gin-gonic/gin"

	"acadflow/backend/internal/dto"
	"acadflow/backend/internal/service"
	"acadflow/backend/pkg/response"
)

// CourseHandler course catalog endpoints.
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler builds the CourseHandler.
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// Create
// POST /api/v1/courses
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.courseSvc.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// Get
// GET /api/v1/courses/:code
func (h *CourseHandler) Get(c *gin.Context) {
	result, err := h.courseSvc.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// List
// GET /api/v1/courses?marked=true
func (h *CourseHandler) List(c *gin.Context) {
	markedOnly := c.Query("marked") == "true"
	result, err := h.courseSvc.List(c.Request.Context(), markedOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Update
// PATCH /api/v1/courses/:code
func (h *CourseHandler) Update(c *gin.Context) {
	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.courseSvc.Update(c.Request.Context(), c.Param("code"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete
// DELETE /api/v1/courses/:code
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courseSvc.Delete(c.Request.Context(), c.Param("code")); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}
