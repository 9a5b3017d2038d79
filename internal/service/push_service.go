package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"acadflow/backend/internal/dto"
	"acadflow/backend/internal/model"
	"acadflow/backend/internal/repository"
	"acadflow/backend/pkg/apperrors"
	"acadflow/backend/pkg/ttd"
)

// PushService uploads a completed allocation to the timetable division.
type PushService interface {
	// Push projects every pushable master allocation of the latest
	// semester and uploads them concurrently, one request per course.
	// The caller's identity token is verified first; a rejected token
	// aborts the whole push.
	Push(ctx context.Context, req *dto.PushRequest) (*dto.PushResponse, error)
}

type pushService struct {
	repo   *repository.Repository
	ttd    ttd.Client
	logger *zap.Logger
}

// NewPushService builds the PushService.
func NewPushService(repo *repository.Repository, ttdClient ttd.Client, logger *zap.Logger) PushService {
	return &pushService{repo: repo, ttd: ttdClient, logger: logger}
}

func (s *pushService) Push(ctx context.Context, req *dto.PushRequest) (*dto.PushResponse, error) {
	semester, err := s.repo.Semester.Latest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoActiveAllocation
		}
		return nil, err
	}
	if semester.AllocationStatus != model.AllocationCompleted {
		return nil, fmt.Errorf("%w: the allocation must be completed before pushing", apperrors.ErrInvalidState)
	}

	if err := s.ttd.VerifyIdentityToken(ctx, req.IdentityToken); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExternal, err)
	}

	masters, err := s.repo.Allocation.ListMasters(ctx, semester.SemesterID)
	if err != nil {
		return nil, err
	}

	resp := &dto.PushResponse{Skipped: []string{}, Results: []dto.PushCourseResult{}}
	type job struct {
		courseCode string
		payload    *ttd.CoursePush
	}
	jobs := make([]job, 0, len(masters))

	for i := range masters {
		master := &masters[i]
		if master.Course == nil || master.Course.TTDCourseID == nil {
			resp.Skipped = append(resp.Skipped, master.CourseCode)
			continue
		}
		if master.Course.IsMultiDepartment() && !req.SendMultiDepartmentCourses {
			resp.Skipped = append(resp.Skipped, master.CourseCode)
			continue
		}
		jobs = append(jobs, job{
			courseCode: master.CourseCode,
			payload:    projectCoursePush(master),
		})
	}

	results := make([]dto.PushCourseResult, len(jobs))
	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result := dto.PushCourseResult{CourseCode: jobs[i].courseCode, OK: true}
			if err := s.ttd.PushCourse(ctx, jobs[i].payload); err != nil {
				s.logger.Error("push course failed",
					zap.String("course", jobs[i].courseCode),
					zap.Error(err),
				)
				result.OK = false
				result.Error = err.Error()
			}
			results[i] = result
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		if r.OK {
			resp.Pushed++
		} else {
			resp.Failed++
		}
	}
	resp.Results = results
	sort.Strings(resp.Skipped)

	s.logger.Info("allocation push finished",
		zap.String("semester_id", semester.SemesterID),
		zap.Int("pushed", resp.Pushed),
		zap.Int("failed", resp.Failed),
		zap.Int("skipped", len(resp.Skipped)),
	)
	return resp, nil
}

// projectCoursePush flattens one master allocation into the timetable
// division's wire shape. Section labels are the type letter plus the derived
// ordinal; instructors are referred to by their institute ERP identifiers.
func projectCoursePush(master *model.MasterAllocation) *ttd.CoursePush {
	push := &ttd.CoursePush{
		CourseID: *master.Course.TTDCourseID,
		Active:   true,
		Sections: []ttd.SectionPush{},
		RoomIDs:  []string{},
	}

	ordinals := make(map[string]int, 3)
	for i := range master.Sections {
		section := &master.Sections[i]
		ordinals[section.Type]++

		sp := ttd.SectionPush{
			Label:         model.SectionTypeLetter(section.Type) + fmt.Sprint(ordinals[section.Type]),
			InstructorIDs: []string{},
		}
		for _, row := range section.Instructors {
			if row.Instructor == nil {
				continue
			}
			if id := row.Instructor.ExternalID(); id != "" {
				sp.InstructorIDs = append(sp.InstructorIDs, id)
			}
		}
		push.Sections = append(push.Sections, sp)

		if section.TimetableRoomID != nil {
			push.RoomIDs = append(push.RoomIDs, *section.TimetableRoomID)
		}
	}

	if master.ICEmail != nil {
		for i := range master.Sections {
			for _, row := range master.Sections[i].Instructors {
				if row.Instructor != nil && row.InstructorEmail == *master.ICEmail {
					push.ICID = row.Instructor.ExternalID()
				}
			}
		}
	}

	return push
}
