package handler

import (
	"github.com/gin-gonic/gin"

	"acadflow/backend/internal/dto"
	"acadflow/backend/internal/service"
	"acadflow/backend/pkg/response"
)

// FormHandler preference form engine endpoints.
type FormHandler struct {
	formSvc service.FormService
}

// NewFormHandler builds the FormHandler.
func NewFormHandler(formSvc service.FormService) *FormHandler {
	return &FormHandler{formSvc: formSvc}
}

// CreateTemplate
// POST /api/v1/form-templates
func (h *FormHandler) CreateTemplate(c *gin.Context) {
	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.formSvc.CreateTemplate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// GetTemplate
// GET /api/v1/form-templates/:id
func (h *FormHandler) GetTemplate(c *gin.Context) {
	result, err := h.formSvc.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// ListTemplates
// GET /api/v1/form-templates
func (h *FormHandler) ListTemplates(c *gin.Context) {
	result, err := h.formSvc.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// CreateForm
// POST /api/v1/forms
func (h *FormHandler) CreateForm(c *gin.Context) {
	var req dto.CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.formSvc.CreateForm(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// GetForm
// GET /api/v1/forms/:id
func (h *FormHandler) GetForm(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	result, err := h.formSvc.GetFormView(c.Request.Context(), c.Param("id"), email)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// RegisterResponse
// POST /api/v1/forms/:id/responses
func (h *FormHandler) RegisterResponse(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	var req dto.RegisterResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	if err := h.formSvc.RegisterResponse(c.Request.Context(), c.Param("id"), email, &req); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}

// RankedPreferences
// GET /api/v1/forms/:id/preferences?course=CS+F211&type=LECTURE
func (h *FormHandler) RankedPreferences(c *gin.Context) {
	course := c.Query("course")
	sectionType := c.Query("type")
	if course == "" || sectionType == "" {
		response.BadRequest(c, 10001, "course and type query parameters are required")
		return
	}

	result, err := h.formSvc.RankedPreferences(c.Request.Context(), c.Param("id"), course, sectionType)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// OtherResponses
// GET /api/v1/forms/:id/responses/others?course=CS+F211&type=LECTURE
// Shows a submitter what everyone else asked for, without their own entry.
func (h *FormHandler) OtherResponses(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	course := c.Query("course")
	sectionType := c.Query("type")
	if course == "" || sectionType == "" {
		response.BadRequest(c, 10001, "course and type query parameters are required")
		return
	}

	result, err := h.formSvc.OtherResponses(c.Request.Context(), c.Param("id"), course, sectionType, email)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}
