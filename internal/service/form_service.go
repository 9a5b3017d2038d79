package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"acadflow/backend/internal/dto"
	"acadflow/backend/internal/model"
	"acadflow/backend/internal/repository"
	"acadflow/backend/pkg/apperrors"
)

// FormService is the preference form engine: it instantiates templates into
// per-semester forms, registers structured responses and exposes normalized
// preference rankings.
type FormService interface {
	CreateTemplate(ctx context.Context, req *dto.CreateTemplateRequest) (*dto.TemplateResponse, error)
	GetTemplate(ctx context.Context, id string) (*dto.TemplateResponse, error)
	ListTemplates(ctx context.Context) ([]dto.TemplateResponse, error)

	// CreateForm instantiates a template for the latest semester and links
	// it. Legal only while the semester is notStarted; a semester never
	// changes its form once linked.
	CreateForm(ctx context.Context, req *dto.CreateFormRequest) (*dto.FormResponseView, error)
	// GetFormView returns the form as visible to the requester. Callers
	// with allocation:write see every field (preview mode); anyone whose
	// visible field set is empty is rejected.
	GetFormView(ctx context.Context, formID, requesterEmail string) (*dto.FormResponseView, error)
	// RegisterResponse validates and stores a submitter's answers. All
	// fields are validated before any row is written; each field's rows
	// replace atomically.
	RegisterResponse(ctx context.Context, formID, submitterEmail string, req *dto.RegisterResponseRequest) error
	// OtherResponses lists every submitter's preference for a
	// (course, sectionType) pair except the excluded submitter's own.
	OtherResponses(ctx context.Context, formID, courseCode, sectionType, excludeEmail string) ([]dto.RankedPreference, error)
	// RankedPreferences returns the normalized ranking for a
	// (course, sectionType) pair: ranked entries by preference ascending,
	// then eligible instructors with no submitted preference.
	RankedPreferences(ctx context.Context, formID, courseCode, sectionType string) ([]dto.RankedPreference, error)
}

type formService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewFormService builds the FormService.
func NewFormService(repo *repository.Repository, logger *zap.Logger) FormService {
	return &formService{repo: repo, logger: logger}
}

// ── Templates ──

func (s *formService) CreateTemplate(ctx context.Context, req *dto.CreateTemplateRequest) (*dto.TemplateResponse, error) {
	fields := make([]model.TemplateField, 0, len(req.Fields))
	for i, f := range req.Fields {
		// The field union is closed; each kind carries exactly its own
		// payload.
		switch f.Kind {
		case model.FieldKindPreference:
			if f.PreferenceCount == nil || f.PreferenceType == nil {
				return nil, fmt.Errorf("%w: preference field %q requires preference_count and preference_type", apperrors.ErrValidation, f.Label)
			}
		case model.FieldKindTeachingAllocation:
			if f.PreferenceCount != nil || f.PreferenceType != nil || f.CourseGroup != nil {
				return nil, fmt.Errorf("%w: teaching-allocation field %q must not carry preference payload", apperrors.ErrValidation, f.Label)
			}
		default:
			return nil, fmt.Errorf("%w: unknown field kind %q", apperrors.ErrValidation, f.Kind)
		}
		fields = append(fields, model.TemplateField{
			Label:           f.Label,
			Kind:            f.Kind,
			Ordinal:         i,
			PreferenceCount: f.PreferenceCount,
			PreferenceType:  f.PreferenceType,
			CourseGroup:     f.CourseGroup,
			ViewableByRole:  f.ViewableByRole,
		})
	}

	template := &model.FormTemplate{Name: req.Name}
	if err := s.repo.Template.Create(ctx, template, fields); err != nil {
		s.logger.Error("create template failed", zap.Error(err))
		return nil, err
	}
	template.Fields = fields

	return toTemplateResponse(template), nil
}

func (s *formService) GetTemplate(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	template, err := s.repo.Template.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: template %s", apperrors.ErrNotFound, id)
		}
		return nil, err
	}
	return toTemplateResponse(template), nil
}

func (s *formService) ListTemplates(ctx context.Context) ([]dto.TemplateResponse, error) {
	templates, err := s.repo.Template.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.TemplateResponse, 0, len(templates))
	for i := range templates {
		result = append(result, *toTemplateResponse(&templates[i]))
	}
	return result, nil
}

// ── Form instantiation ──

func (s *formService) CreateForm(ctx context.Context, req *dto.CreateFormRequest) (*dto.FormResponseView, error) {
	semester, err := s.repo.Semester.Latest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoActiveAllocation
		}
		return nil, err
	}
	if semester.AllocationStatus != model.AllocationNotStarted {
		return nil, fmt.Errorf("%w: form can only be linked before collection starts", apperrors.ErrInvalidState)
	}
	if semester.FormID != nil {
		return nil, fmt.Errorf("%w: semester already has a linked form", apperrors.ErrConflict)
	}

	template, err := s.repo.Template.GetByID(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: template %s", apperrors.ErrNotFound, req.TemplateID)
		}
		return nil, err
	}

	publishRole := req.PublishRole
	if publishRole == "" {
		publishRole = model.UserTypeFaculty
	}

	form := &model.Form{
		TemplateID:  template.TemplateID,
		SemesterID:  semester.SemesterID,
		PublishRole: publishRole,
	}
	fields := make([]model.TemplateField, len(template.Fields))
	copy(fields, template.Fields)

	// Form and its copied fields commit together.
	if err := s.repo.Form.CreateWithFields(ctx, form, fields); err != nil {
		s.logger.Error("create form failed", zap.Error(err))
		return nil, err
	}

	semester.FormID = &form.FormID
	if err := s.repo.Semester.Update(ctx, semester); err != nil {
		s.logger.Error("link form failed", zap.Error(err))
		return nil, err
	}

	form.Fields = fields
	view := toFormView(form, fields, true)
	return view, nil
}

// ── Visibility ──

// visibleFields applies the field-level visibility rule for one requester.
// preview is true when the requester holds allocation:write and therefore
// sees everything.
func visibleFields(form *model.Form, requester *model.User) (fields []model.TemplateField, preview bool) {
	if HasCapability(requester.Roles, CapAllocationWrite) {
		return form.Fields, true
	}
	for _, f := range form.Fields {
		if f.Kind == model.FieldKindTeachingAllocation && requester.Type != model.UserTypeFaculty {
			continue
		}
		if f.ViewableByRole != nil && !requester.Roles.Contains(*f.ViewableByRole) {
			continue
		}
		fields = append(fields, f)
	}
	return fields, false
}

func (s *formService) GetFormView(ctx context.Context, formID, requesterEmail string) (*dto.FormResponseView, error) {
	form, err := s.getForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	requester, err := s.repo.User.GetByEmail(ctx, requesterEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, requesterEmail)
		}
		return nil, err
	}

	fields, preview := visibleFields(form, requester)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no form fields are visible to you", apperrors.ErrForbidden)
	}

	return toFormView(form, fields, preview), nil
}

// ── Response registration ──

func (s *formService) RegisterResponse(ctx context.Context, formID, submitterEmail string, req *dto.RegisterResponseRequest) error {
	form, err := s.getForm(ctx, formID)
	if err != nil {
		return err
	}
	if !form.IsOpen(time.Now()) {
		return fmt.Errorf("%w: the form deadline has passed", apperrors.ErrInvalidState)
	}

	submitter, err := s.repo.User.GetByEmail(ctx, submitterEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %s", apperrors.ErrNotFound, submitterEmail)
		}
		return err
	}
	if !isEligibleInstructor(submitter) {
		return fmt.Errorf("%w: you are not eligible to submit this form", apperrors.ErrForbidden)
	}

	fieldByID := make(map[string]*model.TemplateField, len(form.Fields))
	for i := range form.Fields {
		fieldByID[form.Fields[i].FieldID] = &form.Fields[i]
	}
	visible, _ := visibleFields(form, submitter)
	visibleByID := make(map[string]bool, len(visible))
	for _, f := range visible {
		visibleByID[f.FieldID] = true
	}

	// Validate every field before writing anything; a malformed submission
	// is never partially applied.
	rowsByField := make(map[string][]model.FormResponse, len(req.Fields))
	for _, sub := range req.Fields {
		field, ok := fieldByID[sub.TemplateFieldID]
		if !ok {
			return fmt.Errorf("%w: field %s does not belong to the form", apperrors.ErrNotFound, sub.TemplateFieldID)
		}
		if !visibleByID[field.FieldID] {
			return fmt.Errorf("%w: field %q is not available to you", apperrors.ErrForbidden, field.Label)
		}

		rows, err := s.validateFieldSubmission(ctx, form, field, submitter, &sub)
		if err != nil {
			return err
		}
		rowsByField[field.FieldID] = rows
	}

	// Every submitted field commits in one transaction.
	if err := s.repo.Response.ReplaceForFields(ctx, form.FormID, submitterEmail, rowsByField); err != nil {
		s.logger.Error("register response failed",
			zap.String("form_id", form.FormID),
			zap.Error(err),
		)
		return err
	}

	if err := s.repo.Todo.CompleteForAssignee(ctx, TodoKindFormSubmission, submitterEmail); err != nil {
		s.logger.Warn("complete submission todo failed", zap.Error(err))
	}

	return nil
}

// validateFieldSubmission checks one field submission against the field's
// kind and returns the rows to store. The union match is exhaustive.
func (s *formService) validateFieldSubmission(ctx context.Context, form *model.Form, field *model.TemplateField, submitter *model.User, sub *dto.FieldSubmission) ([]model.FormResponse, error) {
	switch field.Kind {
	case model.FieldKindTeachingAllocation:
		if sub.TeachingAllocation == nil || len(sub.Preferences) > 0 {
			return nil, fmt.Errorf("%w: field %q expects a single teaching-allocation value", apperrors.ErrValidation, field.Label)
		}
		if submitter.Type != model.UserTypeFaculty {
			return nil, fmt.Errorf("%w: teaching allocation is a faculty-only field", apperrors.ErrForbidden)
		}
		return []model.FormResponse{{
			FormID:             form.FormID,
			TemplateFieldID:    field.FieldID,
			SubmittedByEmail:   submitter.Email,
			TeachingAllocation: sub.TeachingAllocation,
		}}, nil

	case model.FieldKindPreference:
		if len(sub.Preferences) == 0 || sub.TeachingAllocation != nil {
			return nil, fmt.Errorf("%w: field %q expects ranked course preferences", apperrors.ErrValidation, field.Label)
		}
		if field.PreferenceCount != nil && len(sub.Preferences) > *field.PreferenceCount {
			return nil, fmt.Errorf("%w: field %q accepts at most %d preferences", apperrors.ErrValidation, field.Label, *field.PreferenceCount)
		}

		// Ranks must be exactly 1..n over distinct courses.
		seenRank := make(map[int]bool, len(sub.Preferences))
		seenCourse := make(map[string]bool, len(sub.Preferences))
		for _, p := range sub.Preferences {
			if p.Preference < 1 || p.Preference > len(sub.Preferences) || seenRank[p.Preference] {
				return nil, fmt.Errorf("%w: field %q: preference ranks must be contiguous from 1", apperrors.ErrValidation, field.Label)
			}
			if seenCourse[p.CourseCode] {
				return nil, fmt.Errorf("%w: field %q: course %s listed twice", apperrors.ErrValidation, field.Label, p.CourseCode)
			}
			seenRank[p.Preference] = true
			seenCourse[p.CourseCode] = true

			course, err := s.repo.Course.GetByCode(ctx, p.CourseCode)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, fmt.Errorf("%w: course %s", apperrors.ErrNotFound, p.CourseCode)
				}
				return nil, err
			}
			if !course.MarkedForAllocation {
				return nil, fmt.Errorf("%w: course %s is not offered for allocation this semester", apperrors.ErrValidation, p.CourseCode)
			}
			if field.CourseGroup != nil && course.OfferedTo != *field.CourseGroup {
				return nil, fmt.Errorf("%w: course %s is outside this field's course group", apperrors.ErrValidation, p.CourseCode)
			}
		}

		rows := make([]model.FormResponse, 0, len(sub.Preferences))
		for _, p := range sub.Preferences {
			p := p
			rows = append(rows, model.FormResponse{
				FormID:             form.FormID,
				TemplateFieldID:    field.FieldID,
				SubmittedByEmail:   submitter.Email,
				CourseCode:         &p.CourseCode,
				Preference:         &p.Preference,
				TakenConsecutively: p.TakenConsecutively,
			})
		}
		return rows, nil

	default:
		return nil, fmt.Errorf("%w: unknown field kind %q", apperrors.ErrValidation, field.Kind)
	}
}

// ── Normalized rankings ──

func (s *formService) RankedPreferences(ctx context.Context, formID, courseCode, sectionType string) ([]dto.RankedPreference, error) {
	if !model.ValidSectionType(sectionType) {
		return nil, fmt.Errorf("%w: invalid section type %q", apperrors.ErrValidation, sectionType)
	}

	rows, err := s.repo.Response.ListByForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	ranked := collectPreferences(rows, courseCode, sectionType, "")

	// Eligible instructors without a submitted preference sort after every
	// ranked entry, ordered by email for determinism.
	seen := make(map[string]bool, len(ranked))
	for _, r := range ranked {
		seen[r.SubmittedByEmail] = true
	}
	eligible, err := eligibleInstructors(ctx, s.repo, "")
	if err != nil {
		return nil, err
	}
	for _, u := range eligible {
		if !seen[u.Email] {
			ranked = append(ranked, dto.RankedPreference{
				SubmittedByEmail: u.Email,
				SubmitterName:    u.Name,
				CourseCode:       courseCode,
			})
		}
	}

	return ranked, nil
}

func (s *formService) OtherResponses(ctx context.Context, formID, courseCode, sectionType, excludeEmail string) ([]dto.RankedPreference, error) {
	if !model.ValidSectionType(sectionType) {
		return nil, fmt.Errorf("%w: invalid section type %q", apperrors.ErrValidation, sectionType)
	}

	rows, err := s.repo.Response.ListByForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	return collectPreferences(rows, courseCode, sectionType, excludeEmail), nil
}

func (s *formService) getForm(ctx context.Context, formID string) (*model.Form, error) {
	form, err := s.repo.Form.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: form %s", apperrors.ErrNotFound, formID)
		}
		return nil, err
	}
	return form, nil
}

// collectPreferences extracts the preference rows matching a
// (course, sectionType) pair, excluding teaching-allocation rows, ordered by
// preference ascending. Submitters tie-break by email.
func collectPreferences(rows []model.FormResponse, courseCode, sectionType, excludeEmail string) []dto.RankedPreference {
	out := make([]dto.RankedPreference, 0)
	for _, r := range rows {
		if r.TeachingAllocation != nil {
			continue // a different field kind
		}
		if r.CourseCode == nil || *r.CourseCode != courseCode {
			continue
		}
		if r.TemplateField == nil || r.TemplateField.PreferenceType == nil || *r.TemplateField.PreferenceType != sectionType {
			continue
		}
		if excludeEmail != "" && r.SubmittedByEmail == excludeEmail {
			continue
		}
		out = append(out, dto.RankedPreference{
			SubmittedByEmail:   r.SubmittedByEmail,
			CourseCode:         *r.CourseCode,
			Preference:         r.Preference,
			TakenConsecutively: r.TakenConsecutively,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Preference, out[j].Preference
		if pi == nil && pj == nil {
			return out[i].SubmittedByEmail < out[j].SubmittedByEmail
		}
		if pi == nil {
			return false
		}
		if pj == nil {
			return true
		}
		if *pi != *pj {
			return *pi < *pj
		}
		return out[i].SubmittedByEmail < out[j].SubmittedByEmail
	})

	return out
}

// isEligibleInstructor applies the engine's eligibility filter: active
// faculty, or active full-time PhD students.
func isEligibleInstructor(u *model.User) bool {
	if u.Deactivated {
		return false
	}
	switch u.Type {
	case model.UserTypeFaculty:
		return true
	case model.UserTypePhD:
		return u.PhDType != nil && *u.PhDType == model.PhDTypeFullTime
	default:
		return false
	}
}

// eligibleInstructors lists eligible users, optionally restricted to one
// user type.
func eligibleInstructors(ctx context.Context, repo *repository.Repository, userType string) ([]model.User, error) {
	types := []string{model.UserTypeFaculty, model.UserTypePhD}
	if userType != "" {
		types = []string{userType}
	}
	users, err := repo.User.ListActiveByTypes(ctx, types)
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		u := u
		if isEligibleInstructor(&u) {
			out = append(out, u)
		}
	}
	return out, nil
}

func toTemplateResponse(t *model.FormTemplate) *dto.TemplateResponse {
	resp := &dto.TemplateResponse{
		TemplateID: t.TemplateID,
		Name:       t.Name,
		Fields:     make([]dto.TemplateFieldResponse, 0, len(t.Fields)),
	}
	for _, f := range t.Fields {
		resp.Fields = append(resp.Fields, toFieldResponse(&f))
	}
	return resp
}

func toFieldResponse(f *model.TemplateField) dto.TemplateFieldResponse {
	return dto.TemplateFieldResponse{
		FieldID:         f.FieldID,
		Label:           f.Label,
		Kind:            f.Kind,
		Ordinal:         f.Ordinal,
		PreferenceCount: f.PreferenceCount,
		PreferenceType:  f.PreferenceType,
		CourseGroup:     f.CourseGroup,
		ViewableByRole:  f.ViewableByRole,
	}
}

func toFormView(form *model.Form, fields []model.TemplateField, preview bool) *dto.FormResponseView {
	view := &dto.FormResponseView{
		FormID:     form.FormID,
		SemesterID: form.SemesterID,
		Preview:    preview,
		Fields:     make([]dto.TemplateFieldResponse, 0, len(fields)),
	}
	if form.Deadline != nil {
		d := form.Deadline.Format(time.RFC3339)
		view.Deadline = &d
	}
	for _, f := range fields {
		view.Fields = append(view.Fields, toFieldResponse(&f))
	}
	return view
}
