package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"acadflow/backend/internal/dto"
	"acadflow/backend/internal/model"
	"acadflow/backend/internal/repository"
	"acadflow/backend/pkg/apperrors"
)

// AllocationService is the allocation computation engine: section and
// instructor management for the latest semester, derived course statuses,
// candidate rankings and the credit-load matrix.
type AllocationService interface {
	// Status derives per-course allocation progress over the marked
	// catalog for the latest semester.
	Status(ctx context.Context) ([]dto.CourseAllocationStatus, error)

	// CreateSection adds a section under a course's master allocation,
	// creating the master on first use. Legal only while the latest
	// semester is in allocation.
	CreateSection(ctx context.Context, req *dto.CreateSectionRequest) (*dto.SectionResponse, error)
	DeleteSection(ctx context.Context, sectionID string) error
	GetSection(ctx context.Context, sectionID string) (*dto.SectionResponse, error)

	// AssignInstructor adds an instructor to a section; a concurrent
	// duplicate assignment surfaces as a conflict.
	AssignInstructor(ctx context.Context, sectionID, instructorEmail string) (*dto.SectionResponse, error)
	DismissInstructor(ctx context.Context, sectionID, instructorEmail string) error
	SetIC(ctx context.Context, courseCode, icEmail string) error

	// Candidates lists eligible instructors for a (course, sectionType)
	// pair, annotated with their submitted preference rank. Ranked
	// candidates come first by preference ascending; the unranked follow,
	// ordered by email. Instructors already on excludeSectionID are
	// omitted.
	Candidates(ctx context.Context, courseCode, sectionType, userType, excludeSectionID string) ([]dto.CandidateResponse, error)

	// InstructorDetails returns an instructor's sections grouped by type,
	// split into current and past relative to the latest semester.
	InstructorDetails(ctx context.Context, email string) (*dto.InstructorAllocationDetails, error)

	// LoadMatrix computes the credit-load matrix for the latest semester.
	LoadMatrix(ctx context.Context) (*dto.LoadMatrixResponse, error)
}

type allocationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAllocationService builds the AllocationService.
func NewAllocationService(repo *repository.Repository, logger *zap.Logger) AllocationService {
	return &allocationService{repo: repo, logger: logger}
}

// ── Derived status ──

func (s *allocationService) Status(ctx context.Context) ([]dto.CourseAllocationStatus, error) {
	semester, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}

	courses, err := s.repo.Course.List(ctx, true)
	if err != nil {
		return nil, err
	}
	masters, err := s.repo.Allocation.ListMasters(ctx, semester.SemesterID)
	if err != nil {
		return nil, err
	}
	masterByCourse := make(map[string]*model.MasterAllocation, len(masters))
	for i := range masters {
		masterByCourse[masters[i].CourseCode] = &masters[i]
	}

	result := make([]dto.CourseAllocationStatus, 0, len(courses))
	for i := range courses {
		course := &courses[i]
		entry := dto.CourseAllocationStatus{
			CourseCode: course.Code,
			CourseName: course.Name,
			Status:     model.CourseStatusNotStarted,
			Sections:   []dto.SectionResponse{},
		}
		if master, ok := masterByCourse[course.Code]; ok && len(master.Sections) > 0 {
			entry.ICEmail = master.ICEmail
			entry.Status = model.CourseStatusAllocated
			for j := range master.Sections {
				section := &master.Sections[j]
				if len(section.Instructors) == 0 {
					entry.Status = model.CourseStatusPending
				}
				entry.Sections = append(entry.Sections, toSectionResponse(section, master, master.Sections))
			}
		}
		result = append(result, entry)
	}
	return result, nil
}

// ── Section management ──

func (s *allocationService) CreateSection(ctx context.Context, req *dto.CreateSectionRequest) (*dto.SectionResponse, error) {
	semester, err := s.requireInAllocation(ctx)
	if err != nil {
		return nil, err
	}

	course, err := s.repo.Course.GetByCode(ctx, req.CourseCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: course %s", apperrors.ErrNotFound, req.CourseCode)
		}
		return nil, err
	}
	if !course.MarkedForAllocation {
		return nil, fmt.Errorf("%w: course %s is not marked for allocation", apperrors.ErrInvalidState, course.Code)
	}

	master, err := s.repo.Allocation.GetMaster(ctx, semester.SemesterID, course.Code)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		master = &model.MasterAllocation{
			SemesterID: semester.SemesterID,
			CourseCode: course.Code,
		}
		if err := s.repo.Allocation.CreateMaster(ctx, master); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Raced another creator; the existing master wins.
				master, err = s.repo.Allocation.GetMaster(ctx, semester.SemesterID, course.Code)
				if err != nil {
					return nil, err
				}
			} else {
				s.logger.Error("create master failed", zap.String("course", course.Code), zap.Error(err))
				return nil, err
			}
		}
		master.Course = course
	}

	section := &model.AllocationSection{
		MasterID:        master.MasterID,
		Type:            req.Type,
		TimetableRoomID: req.TimetableRoomID,
	}
	if err := s.repo.Allocation.CreateSection(ctx, section); err != nil {
		s.logger.Error("create section failed", zap.String("course", course.Code), zap.Error(err))
		return nil, err
	}

	siblings, err := s.repo.Allocation.ListSiblingSections(ctx, master.MasterID, section.Type)
	if err != nil {
		return nil, err
	}
	resp := toSectionResponse(section, master, siblings)
	return &resp, nil
}

func (s *allocationService) DeleteSection(ctx context.Context, sectionID string) error {
	section, _, err := s.currentSection(ctx, sectionID)
	if err != nil {
		return err
	}
	return s.repo.Allocation.DeleteSection(ctx, section.SectionID)
}

func (s *allocationService) GetSection(ctx context.Context, sectionID string) (*dto.SectionResponse, error) {
	section, err := s.repo.Allocation.GetSection(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: section %s", apperrors.ErrNotFound, sectionID)
		}
		return nil, err
	}
	siblings, err := s.repo.Allocation.ListSiblingSections(ctx, section.MasterID, section.Type)
	if err != nil {
		return nil, err
	}
	resp := toSectionResponse(section, section.Master, siblings)
	return &resp, nil
}

// ── Instructor assignment ──

func (s *allocationService) AssignInstructor(ctx context.Context, sectionID, instructorEmail string) (*dto.SectionResponse, error) {
	section, _, err := s.currentSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	instructor, err := s.repo.User.GetByEmail(ctx, instructorEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, instructorEmail)
		}
		return nil, err
	}
	if !isEligibleInstructor(instructor) {
		return nil, fmt.Errorf("%w: %s cannot be allocated sections", apperrors.ErrForbidden, instructorEmail)
	}

	row := &model.SectionInstructor{
		SectionID:       section.SectionID,
		InstructorEmail: instructorEmail,
	}
	if err := s.repo.Allocation.AddInstructor(ctx, row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s is already on this section", apperrors.ErrConflict, instructorEmail)
		}
		s.logger.Error("assign instructor failed",
			zap.String("section_id", sectionID),
			zap.String("instructor", instructorEmail),
			zap.Error(err),
		)
		return nil, err
	}

	return s.GetSection(ctx, sectionID)
}

func (s *allocationService) DismissInstructor(ctx context.Context, sectionID, instructorEmail string) error {
	if _, _, err := s.currentSection(ctx, sectionID); err != nil {
		return err
	}
	affected, err := s.repo.Allocation.RemoveInstructor(ctx, sectionID, instructorEmail)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s is not on section %s", apperrors.ErrNotFound, instructorEmail, sectionID)
	}
	return nil
}

func (s *allocationService) SetIC(ctx context.Context, courseCode, icEmail string) error {
	semester, err := s.requireInAllocation(ctx)
	if err != nil {
		return err
	}

	master, err := s.repo.Allocation.GetMaster(ctx, semester.SemesterID, courseCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: course %s has no allocation yet", apperrors.ErrNotFound, courseCode)
		}
		return err
	}

	ic, err := s.repo.User.GetByEmail(ctx, icEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %s", apperrors.ErrNotFound, icEmail)
		}
		return err
	}
	if ic.Type != model.UserTypeFaculty {
		return fmt.Errorf("%w: the instructor-in-charge must be a faculty member", apperrors.ErrForbidden)
	}

	return s.repo.Allocation.SetIC(ctx, master.MasterID, icEmail)
}

// ── Candidates ──

func (s *allocationService) Candidates(ctx context.Context, courseCode, sectionType, userType, excludeSectionID string) ([]dto.CandidateResponse, error) {
	if !model.ValidSectionType(sectionType) {
		return nil, fmt.Errorf("%w: invalid section type %q", apperrors.ErrValidation, sectionType)
	}
	semester, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}

	eligible, err := eligibleInstructors(ctx, s.repo, userType)
	if err != nil {
		return nil, err
	}

	assigned := make(map[string]bool)
	if excludeSectionID != "" {
		section, err := s.repo.Allocation.GetSection(ctx, excludeSectionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: section %s", apperrors.ErrNotFound, excludeSectionID)
			}
			return nil, err
		}
		for _, row := range section.Instructors {
			assigned[row.InstructorEmail] = true
		}
	}

	// Preference ranks come from the semester's form, when one exists.
	prefByEmail := make(map[string]int)
	if semester.FormID != nil {
		rows, err := s.repo.Response.ListByForm(ctx, *semester.FormID)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if r.CourseCode == nil || r.Preference == nil || *r.CourseCode != courseCode {
				continue
			}
			if r.TemplateField == nil || r.TemplateField.PreferenceType == nil || *r.TemplateField.PreferenceType != sectionType {
				continue
			}
			prefByEmail[r.SubmittedByEmail] = *r.Preference
		}
	}

	candidates := make([]dto.CandidateResponse, 0, len(eligible))
	for _, u := range eligible {
		if assigned[u.Email] {
			continue
		}
		c := dto.CandidateResponse{Email: u.Email, Name: u.Name, Type: u.Type}
		if p, ok := prefByEmail[u.Email]; ok {
			p := p
			c.Preference = &p
		}
		candidates = append(candidates, c)
	}

	// Ranked before unranked, then preference ascending, email as the
	// deterministic tie-break.
	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := candidates[i].Preference, candidates[j].Preference
		if pi == nil && pj == nil {
			return candidates[i].Email < candidates[j].Email
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
		return candidates[i].Email < candidates[j].Email
	})

	return candidates, nil
}

// ── Instructor details ──

func (s *allocationService) InstructorDetails(ctx context.Context, email string) (*dto.InstructorAllocationDetails, error) {
	instructor, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, email)
		}
		return nil, err
	}

	sections, err := s.repo.Allocation.ListSectionsByInstructor(ctx, email)
	if err != nil {
		return nil, err
	}

	latestID := ""
	if semester, err := s.repo.Semester.Latest(ctx); err == nil {
		latestID = semester.SemesterID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	details := &dto.InstructorAllocationDetails{
		Email:             instructor.Email,
		Name:              instructor.Name,
		CurrentAllocation: make(map[string][]dto.InstructorSectionDetail),
		PastAllocation:    make(map[string][]dto.InstructorSectionDetail),
	}

	for i := range sections {
		section := &sections[i]
		if section.Master == nil || section.Master.Course == nil {
			continue
		}
		detail := dto.InstructorSectionDetail{
			SectionID:  section.SectionID,
			CourseCode: section.Master.CourseCode,
			CourseName: section.Master.Course.Name,
			Type:       section.Type,
			Number:     sectionNumber(section, section.Master.Sections),
			SemesterID: section.Master.SemesterID,
			Load:       instructorSectionLoad(section.Master.Course, section, instructor),
		}
		if latestID != "" && section.Master.SemesterID == latestID {
			details.CurrentAllocation[section.Type] = append(details.CurrentAllocation[section.Type], detail)
			details.TotalLoad += detail.Load
		} else {
			details.PastAllocation[section.Type] = append(details.PastAllocation[section.Type], detail)
		}
	}

	return details, nil
}

// ── Load matrix ──

func (s *allocationService) LoadMatrix(ctx context.Context) (*dto.LoadMatrixResponse, error) {
	semester, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}
	masters, err := s.repo.Allocation.ListMasters(ctx, semester.SemesterID)
	if err != nil {
		return nil, err
	}

	// Columns: every instructor holding at least one section, by email.
	instructorSet := make(map[string]*model.User)
	for i := range masters {
		for j := range masters[i].Sections {
			for _, row := range masters[i].Sections[j].Instructors {
				if row.Instructor != nil {
					instructorSet[row.InstructorEmail] = row.Instructor
				}
			}
		}
	}
	emails := make([]string, 0, len(instructorSet))
	for email := range instructorSet {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	resp := &dto.LoadMatrixResponse{Instructors: emails}
	totals := make(map[string]float64, len(emails))

	sectionTypes := []string{model.SectionTypeLecture, model.SectionTypeTutorial, model.SectionTypePractical}
	for i := range masters {
		master := &masters[i]
		if master.Course == nil {
			continue
		}
		for _, st := range sectionTypes {
			loads := make(map[string]float64)
			found := false
			for j := range master.Sections {
				section := &master.Sections[j]
				if section.Type != st {
					continue
				}
				found = true
				for _, row := range section.Instructors {
					if row.Instructor == nil {
						continue
					}
					loads[row.InstructorEmail] += instructorSectionLoad(master.Course, section, row.Instructor)
				}
			}
			if !found {
				continue
			}
			row := dto.LoadMatrixRow{CourseCode: master.CourseCode, Type: st}
			for _, email := range emails {
				load := loads[email]
				totals[email] += load
				row.Cells = append(row.Cells, dto.LoadMatrixCell{Email: email, Load: load, NA: load == 0})
			}
			resp.Rows = append(resp.Rows, row)
		}
	}

	for _, email := range emails {
		total := totals[email]
		resp.Totals = append(resp.Totals, dto.LoadMatrixCell{Email: email, Load: total, NA: total == 0})
	}

	return resp, nil
}

// ── Helpers ──

func (s *allocationService) latest(ctx context.Context) (*model.Semester, error) {
	semester, err := s.repo.Semester.Latest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoActiveAllocation
		}
		return nil, err
	}
	return semester, nil
}

func (s *allocationService) requireInAllocation(ctx context.Context) (*model.Semester, error) {
	semester, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}
	if semester.AllocationStatus != model.AllocationInProgress {
		return nil, fmt.Errorf("%w: the semester is not in allocation", apperrors.ErrInvalidState)
	}
	return semester, nil
}

// currentSection loads a section and checks it belongs to the latest
// semester's allocation while it is still in progress.
func (s *allocationService) currentSection(ctx context.Context, sectionID string) (*model.AllocationSection, *model.Semester, error) {
	semester, err := s.requireInAllocation(ctx)
	if err != nil {
		return nil, nil, err
	}
	section, err := s.repo.Allocation.GetSection(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: section %s", apperrors.ErrNotFound, sectionID)
		}
		return nil, nil, err
	}
	if section.Master == nil || section.Master.SemesterID != semester.SemesterID {
		return nil, nil, fmt.Errorf("%w: section belongs to a past semester", apperrors.ErrInvalidState)
	}
	return section, semester, nil
}

// sectionFacultyCount counts the non-PhD instructors on a section.
func sectionFacultyCount(section *model.AllocationSection) int {
	n := 0
	for _, row := range section.Instructors {
		if row.Instructor != nil && row.Instructor.Type == model.UserTypeFaculty {
			n++
		}
	}
	return n
}

// instructorSectionLoad computes one instructor's credit load for one
// section. Tutorial sections carry a flat unit per instructor; lecture and
// practical units split across the section's faculty, with PhD instructors
// contributing and receiving nothing.
func instructorSectionLoad(course *model.Course, section *model.AllocationSection, instructor *model.User) float64 {
	if section.Type == model.SectionTypeTutorial {
		return 1
	}
	if instructor.Type == model.UserTypePhD {
		return 0
	}
	facultyCount := sectionFacultyCount(section)
	if facultyCount == 0 {
		return 0
	}
	return float64(course.UnitsFor(section.Type)) / float64(facultyCount)
}

// sectionNumber derives a section's 1-based ordinal among same-type siblings
// ordered by creation time.
func sectionNumber(section *model.AllocationSection, siblings []model.AllocationSection) int {
	n := 0
	for i := range siblings {
		if siblings[i].Type != section.Type {
			continue
		}
		n++
		if siblings[i].SectionID == section.SectionID {
			return n
		}
	}
	// The section was created after the sibling list was loaded.
	return n + 1
}

func toSectionResponse(section *model.AllocationSection, master *model.MasterAllocation, siblings []model.AllocationSection) dto.SectionResponse {
	resp := dto.SectionResponse{
		SectionID:       section.SectionID,
		MasterID:        section.MasterID,
		Type:            section.Type,
		Number:          sectionNumber(section, siblings),
		TimetableRoomID: section.TimetableRoomID,
		Instructors:     make([]string, 0, len(section.Instructors)),
	}
	if master != nil {
		resp.CourseCode = master.CourseCode
	}
	for _, row := range section.Instructors {
		resp.Instructors = append(resp.Instructors, row.InstructorEmail)
	}
	return resp
}
