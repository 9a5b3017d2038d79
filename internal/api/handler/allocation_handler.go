package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"acadflow/backend/internal/dto"
	"acadflow/backend/internal/service"
	"acadflow/backend/pkg/response"
)

// AllocationHandler allocation engine, timetable push and export endpoints.
type AllocationHandler struct {
	allocationSvc service.AllocationService
	pushSvc       service.PushService
	exportSvc     service.ExportService
}

// NewAllocationHandler builds the AllocationHandler.
func NewAllocationHandler(allocationSvc service.AllocationService, pushSvc service.PushService, exportSvc service.ExportService) *AllocationHandler {
	return &AllocationHandler{
		allocationSvc: allocationSvc,
		pushSvc:       pushSvc,
		exportSvc:     exportSvc,
	}
}

// Status
// GET /api/v1/allocation/status
func (h *AllocationHandler) Status(c *gin.Context) {
	result, err := h.allocationSvc.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// CreateSection
// POST /api/v1/allocation/sections
func (h *AllocationHandler) CreateSection(c *gin.Context) {
	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.allocationSvc.CreateSection(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// GetSection
// GET /api/v1/allocation/sections/:id
func (h *AllocationHandler) GetSection(c *gin.Context) {
	result, err := h.allocationSvc.GetSection(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteSection
// DELETE /api/v1/allocation/sections/:id
func (h *AllocationHandler) DeleteSection(c *gin.Context) {
	if err := h.allocationSvc.DeleteSection(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}

// AssignInstructor
// POST /api/v1/allocation/sections/:id/instructors
func (h *AllocationHandler) AssignInstructor(c *gin.Context) {
	var req dto.AssignInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.allocationSvc.AssignInstructor(c.Request.Context(), c.Param("id"), req.InstructorEmail)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// DismissInstructor
// DELETE /api/v1/allocation/sections/:id/instructors/:email
func (h *AllocationHandler) DismissInstructor(c *gin.Context) {
	if err := h.allocationSvc.DismissInstructor(c.Request.Context(), c.Param("id"), c.Param("email")); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}

// SetIC
// PUT /api/v1/allocation/courses/:code/ic
func (h *AllocationHandler) SetIC(c *gin.Context) {
	var req dto.SetICRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	if err := h.allocationSvc.SetIC(c.Request.Context(), c.Param("code"), req.ICEmail); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}

// Candidates
// GET /api/v1/allocation/candidates?course=CS+F211&type=LECTURE&user_type=faculty&exclude_section=<id>
func (h *AllocationHandler) Candidates(c *gin.Context) {
	course := c.Query("course")
	sectionType := c.Query("type")
	if course == "" || sectionType == "" {
		response.BadRequest(c, 10001, "course and type query parameters are required")
		return
	}

	result, err := h.allocationSvc.Candidates(c.Request.Context(),
		course, sectionType, c.Query("user_type"), c.Query("exclude_section"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// InstructorDetails
// GET /api/v1/allocation/instructors/:email
func (h *AllocationHandler) InstructorDetails(c *gin.Context) {
	result, err := h.allocationSvc.InstructorDetails(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// LoadMatrix
// GET /api/v1/allocation/load-matrix
func (h *AllocationHandler) LoadMatrix(c *gin.Context) {
	result, err := h.allocationSvc.LoadMatrix(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// ExportLoadMatrix
// GET /api/v1/allocation/load-matrix/export
func (h *AllocationHandler) ExportLoadMatrix(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportLoadMatrix(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// Push
// POST /api/v1/allocation/push
func (h *AllocationHandler) Push(c *gin.Context) {
	var req dto.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.pushSvc.Push(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}
