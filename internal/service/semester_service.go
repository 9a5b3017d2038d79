package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"acadflow/backend/config"
	"acadflow/backend/internal/dto"
	"acadflow/backend/internal/model"
	"acadflow/backend/internal/repository"
	"acadflow/backend/pkg/apperrors"
	"acadflow/backend/pkg/mailer"
)

// TodoKindFormSubmission tags the reminder todos created when a preference
// form is published.
const TodoKindFormSubmission = "allocation-form-submission"

// NotificationKindFormPublished tags the inbox notices created when a
// preference form opens.
const NotificationKindFormPublished = "allocation-form-published"

// SemesterService owns the allocation lifecycle state machine. Every
// operation acts on the latest semester, resolved through
// SemesterRepository.Latest on each call.
type SemesterService interface {
	// GetLatest returns the latest semester. minimal trims the response to
	// identity and lifecycle state and skips everything else; stats
	// additionally aggregates which eligible users have not yet responded
	// to the linked form.
	GetLatest(ctx context.Context, minimal, withStats bool) (*dto.SemesterResponse, error)
	// Create starts a new allocation cycle. Rejected while a previous
	// cycle is still incomplete.
	Create(ctx context.Context, req *dto.CreateSemesterRequest) (*dto.SemesterResponse, error)
	// MarkCourses toggles markedForAllocation; legal only in notStarted.
	MarkCourses(ctx context.Context, req *dto.MarkCoursesRequest) error
	// PublishForm transitions notStarted → formCollection: sets deadlines,
	// creates one todo per eligible recipient and sends the departmental
	// announcement with every recipient blind-copied.
	PublishForm(ctx context.Context, semesterID string, req *dto.PublishFormRequest) error
	// EndForm transitions formCollection → inAllocation, closing the form
	// by moving its deadline to now. No data is deleted.
	EndForm(ctx context.Context, semesterID string) error
	// EndAllocation transitions inAllocation → completed and emits one
	// handout request per non-PhD course in the semester.
	EndAllocation(ctx context.Context, semesterID string) error
}

type semesterService struct {
	cfg    *config.Config
	repo   *repository.Repository
	mail   Mailer
	logger *zap.Logger
}

// NewSemesterService builds the SemesterService.
func NewSemesterService(cfg *config.Config, repo *repository.Repository, mail Mailer, logger *zap.Logger) SemesterService {
	return &semesterService{cfg: cfg, repo: repo, mail: mail, logger: logger}
}

// latest resolves the current allocation cycle or reports that none exists.
func (s *semesterService) latest(ctx context.Context) (*model.Semester, error) {
	semester, err := s.repo.Semester.Latest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoActiveAllocation
		}
		return nil, err
	}
	return semester, nil
}

// resolve returns the latest semester and checks that the caller-supplied id,
// if any, refers to it. Lifecycle operations never act on older semesters.
func (s *semesterService) resolve(ctx context.Context, semesterID string) (*model.Semester, error) {
	semester, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}
	if semesterID != "" && semesterID != semester.SemesterID {
		return nil, fmt.Errorf("%w: semester %s is not the latest", apperrors.ErrInvalidState, semesterID)
	}
	return semester, nil
}

func (s *semesterService) GetLatest(ctx context.Context, minimal, withStats bool) (*dto.SemesterResponse, error) {
	semester, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}

	if minimal {
		return &dto.SemesterResponse{
			ID:               semester.SemesterID,
			AcademicYear:     semester.AcademicYear,
			SemesterType:     model.SemesterTypeName(semester.SemesterType),
			AllocationStatus: semester.AllocationStatus,
		}, nil
	}

	resp := toSemesterResponse(semester)
	if !withStats {
		return resp, nil
	}

	eligible, err := s.eligibleRecipients(ctx)
	if err != nil {
		return nil, err
	}

	responded := map[string]bool{}
	if semester.FormID != nil {
		submitters, err := s.repo.Response.DistinctSubmitters(ctx, *semester.FormID)
		if err != nil {
			return nil, err
		}
		for _, email := range submitters {
			responded[email] = true
		}
	}

	stats := &dto.SemesterStats{EligibleCount: len(eligible)}
	for _, u := range eligible {
		if responded[u.Email] {
			stats.RespondedCount++
		} else {
			stats.NotResponded = append(stats.NotResponded, u.Email)
		}
	}
	resp.Stats = stats

	return resp, nil
}

func (s *semesterService) Create(ctx context.Context, req *dto.CreateSemesterRequest) (*dto.SemesterResponse, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start date %q", apperrors.ErrValidation, req.StartDate)
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end date %q", apperrors.ErrValidation, req.EndDate)
	}
	if !endDate.After(startDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", apperrors.ErrValidation)
	}

	incomplete, err := s.repo.Semester.ExistsIncomplete(ctx)
	if err != nil {
		return nil, err
	}
	if incomplete {
		return nil, fmt.Errorf("%w: a previous allocation cycle has not completed", apperrors.ErrConflict)
	}

	semester := &model.Semester{
		AcademicYear:       req.AcademicYear,
		SemesterType:       parseSemesterType(req.SemesterType),
		StartDate:          startDate,
		EndDate:            endDate,
		AllocationStatus:   model.AllocationNotStarted,
		HODAtStart:         req.HODEmail,
		DCAConvenerAtStart: req.DCAConvener,
	}

	if err := s.repo.Semester.Create(ctx, semester); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: semester %d/%s already exists",
				apperrors.ErrConflict, req.AcademicYear, req.SemesterType)
		}
		s.logger.Error("create semester failed", zap.Error(err))
		return nil, err
	}

	return toSemesterResponse(semester), nil
}

func (s *semesterService) MarkCourses(ctx context.Context, req *dto.MarkCoursesRequest) error {
	semester, err := s.latest(ctx)
	if err != nil {
		return err
	}
	if semester.AllocationStatus != model.AllocationNotStarted {
		return fmt.Errorf("%w: allocation has started, you cannot mark courses now", apperrors.ErrInvalidState)
	}

	if err := s.repo.Course.SetMarked(ctx, req.CourseCodes, req.Marked); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: one or more course codes do not exist", apperrors.ErrNotFound)
		}
		s.logger.Error("mark courses failed", zap.Error(err))
		return err
	}

	return nil
}

func (s *semesterService) PublishForm(ctx context.Context, semesterID string, req *dto.PublishFormRequest) error {
	semester, err := s.resolve(ctx, semesterID)
	if err != nil {
		return err
	}
	if semester.FormID == nil {
		return fmt.Errorf("%w: no form linked to the semester", apperrors.ErrInvalidState)
	}
	if !model.CanTransition(semester.AllocationStatus, model.AllocationFormCollection) {
		return fmt.Errorf("%w: cannot publish form in state %q", apperrors.ErrInvalidState, semester.AllocationStatus)
	}

	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		return fmt.Errorf("%w: invalid deadline %q", apperrors.ErrValidation, req.Deadline)
	}

	semester.AllocationStatus = model.AllocationFormCollection
	semester.AllocationDeadline = &deadline

	// Transition and form deadline commit together.
	if err := s.repo.Semester.TransitionWithFormDeadline(ctx, semester, *semester.FormID, deadline); err != nil {
		s.logger.Error("publish form transition failed", zap.Error(err))
		return err
	}

	recipients, err := s.eligibleRecipients(ctx)
	if err != nil {
		return err
	}

	link := s.cfg.Server.BaseURL + "/allocation/form/" + *semester.FormID
	todos := make([]model.Todo, 0, len(recipients))
	notices := make([]model.Notification, 0, len(recipients))
	emails := make([]string, 0, len(recipients))
	for _, u := range recipients {
		emails = append(emails, u.Email)
		todos = append(todos, model.Todo{
			AssigneeEmail: u.Email,
			Kind:          TodoKindFormSubmission,
			Title:         "Submit your course allocation preferences",
			Link:          link,
			DueAt:         &deadline,
		})
		notices = append(notices, model.Notification{
			RecipientEmail: u.Email,
			Kind:           NotificationKindFormPublished,
			Title:          "Course allocation preference form is open",
			Content: fmt.Sprintf("Preferences for %d %s are due by %s.",
				semester.AcademicYear, model.SemesterTypeName(semester.SemesterType),
				deadline.Format(time.RFC1123)),
			Link: link,
		})
	}
	if err := s.repo.Todo.CreateBatch(ctx, todos); err != nil {
		s.logger.Error("create form todos failed", zap.Error(err))
		return err
	}
	if err := s.repo.Notification.CreateBatch(ctx, notices); err != nil {
		s.logger.Error("create form notifications failed", zap.Error(err))
		return err
	}

	invite := mailer.DeadlineInvite(
		"Course allocation preference deadline",
		"Deadline for submitting course allocation preferences.",
		deadline,
	)
	messageID, err := s.mail.Send(&mailer.Message{
		Subject:  fmt.Sprintf("Course allocation preferences — %d %s", semester.AcademicYear, model.SemesterTypeName(semester.SemesterType)),
		HTMLBody: req.EmailBody,
		BCC:      emails,
		Calendar: invite,
	})
	if err != nil {
		// The transition has committed; announcement failure is surfaced
		// but does not roll the lifecycle back.
		s.logger.Error("send announcement failed", zap.Error(err))
		return fmt.Errorf("%w: announcement email failed: %v", apperrors.ErrExternal, err)
	}

	if err := s.repo.Form.SetEmailMessageID(ctx, *semester.FormID, messageID); err != nil {
		s.logger.Error("record message id failed", zap.Error(err))
		return err
	}

	s.logger.Info("form published",
		zap.String("semester_id", semester.SemesterID),
		zap.Int("recipients", len(emails)),
	)

	return nil
}

func (s *semesterService) EndForm(ctx context.Context, semesterID string) error {
	semester, err := s.resolve(ctx, semesterID)
	if err != nil {
		return err
	}
	if semester.FormID == nil {
		return fmt.Errorf("%w: no form linked to the semester", apperrors.ErrInvalidState)
	}
	if !model.CanTransition(semester.AllocationStatus, model.AllocationInProgress) {
		return fmt.Errorf("%w: cannot end form in state %q", apperrors.ErrInvalidState, semester.AllocationStatus)
	}

	semester.AllocationStatus = model.AllocationInProgress

	// Closing the form means moving its deadline to now; submissions stop,
	// nothing is deleted.
	if err := s.repo.Semester.TransitionWithFormDeadline(ctx, semester, *semester.FormID, time.Now()); err != nil {
		s.logger.Error("end form transition failed", zap.Error(err))
		return err
	}

	return nil
}

func (s *semesterService) EndAllocation(ctx context.Context, semesterID string) error {
	semester, err := s.resolve(ctx, semesterID)
	if err != nil {
		return err
	}
	if semester.FormID == nil {
		return fmt.Errorf("%w: no form linked to the semester", apperrors.ErrInvalidState)
	}
	if !model.CanTransition(semester.AllocationStatus, model.AllocationCompleted) {
		return fmt.Errorf("%w: cannot end allocation in state %q", apperrors.ErrInvalidState, semester.AllocationStatus)
	}

	semester.AllocationStatus = model.AllocationCompleted
	if err := s.repo.Semester.Update(ctx, semester); err != nil {
		s.logger.Error("end allocation transition failed", zap.Error(err))
		return err
	}

	masters, err := s.repo.Allocation.ListMasters(ctx, semester.SemesterID)
	if err != nil {
		return err
	}

	var requests []model.HandoutRequest
	for _, m := range masters {
		if m.Course != nil && m.Course.OfferedTo == model.OfferedToPhD {
			continue
		}
		requests = append(requests, model.HandoutRequest{
			SemesterID: semester.SemesterID,
			CourseCode: m.CourseCode,
			ICEmail:    m.ICEmail,
		})
	}
	if err := s.repo.Handout.CreateBatch(ctx, requests); err != nil {
		s.logger.Error("emit handout requests failed", zap.Error(err))
		return err
	}

	// Outstanding submission reminders are moot once allocation closes.
	if err := s.repo.Todo.CompleteByKind(ctx, TodoKindFormSubmission); err != nil {
		s.logger.Warn("complete form todos failed", zap.Error(err))
	}

	s.logger.Info("allocation completed",
		zap.String("semester_id", semester.SemesterID),
		zap.Int("handout_requests", len(requests)),
	)

	return nil
}

// eligibleRecipients returns every non-deactivated faculty and PhD user.
func (s *semesterService) eligibleRecipients(ctx context.Context) ([]model.User, error) {
	return s.repo.User.ListActiveByTypes(ctx, []string{model.UserTypeFaculty, model.UserTypePhD})
}

func parseSemesterType(name string) int {
	switch name {
	case "EVEN":
		return model.SemesterTypeEven
	case "SUMMER":
		return model.SemesterTypeSummer
	default:
		return model.SemesterTypeOdd
	}
}

func toSemesterResponse(semester *model.Semester) *dto.SemesterResponse {
	resp := &dto.SemesterResponse{
		ID:                 semester.SemesterID,
		AcademicYear:       semester.AcademicYear,
		SemesterType:       model.SemesterTypeName(semester.SemesterType),
		StartDate:          semester.StartDate.Format("2006-01-02"),
		EndDate:            semester.EndDate.Format("2006-01-02"),
		AllocationStatus:   semester.AllocationStatus,
		FormID:             semester.FormID,
		HODAtStart:         semester.HODAtStart,
		DCAConvenerAtStart: semester.DCAConvenerAtStart,
	}
	if semester.AllocationDeadline != nil {
		d := semester.AllocationDeadline.Format(time.RFC3339)
		resp.AllocationDeadline = &d
	}
	return resp
}
