package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"acadflow/backend/internal/dto"
	"acadflow/backend/internal/model"
	"acadflow/backend/internal/repository"
	"acadflow/backend/pkg/apperrors"
)

// CourseService course catalog operations.
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	Get(ctx context.Context, code string) (*dto.CourseResponse, error)
	List(ctx context.Context, markedOnly bool) ([]dto.CourseResponse, error)
	Update(ctx context.Context, code string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	Delete(ctx context.Context, code string) error
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService builds the CourseService.
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	course := &model.Course{
		Code:           req.Code,
		Name:           req.Name,
		LectureUnits:   req.LectureUnits,
		PracticalUnits: req.PracticalUnits,
		TotalUnits:     req.TotalUnits,
		OfferedAs:      req.OfferedAs,
		OfferedTo:      req.OfferedTo,
		OfferedAlsoBy:  model.StringList(req.OfferedAlsoBy),
		TTDCourseID:    req.TTDCourseID,
	}

	if err := s.repo.Course.Create(ctx, course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: course %s already exists", apperrors.ErrConflict, req.Code)
		}
		s.logger.Error("create course failed", zap.String("code", req.Code), zap.Error(err))
		return nil, err
	}

	return toCourseResponse(course), nil
}

func (s *courseService) Get(ctx context.Context, code string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: course %s", apperrors.ErrNotFound, code)
		}
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *courseService) List(ctx context.Context, markedOnly bool) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.List(ctx, markedOnly)
	if err != nil {
		s.logger.Error("list courses failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i]))
	}
	return result, nil
}

func (s *courseService) Update(ctx context.Context, code string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: course %s", apperrors.ErrNotFound, code)
		}
		return nil, err
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.LectureUnits != nil {
		course.LectureUnits = *req.LectureUnits
	}
	if req.PracticalUnits != nil {
		course.PracticalUnits = *req.PracticalUnits
	}
	if req.TotalUnits != nil {
		course.TotalUnits = *req.TotalUnits
	}
	if req.OfferedAs != nil {
		course.OfferedAs = *req.OfferedAs
	}
	if req.OfferedTo != nil {
		course.OfferedTo = *req.OfferedTo
	}
	if req.OfferedAlsoBy != nil {
		course.OfferedAlsoBy = model.StringList(req.OfferedAlsoBy)
	}
	if req.TTDCourseID != nil {
		course.TTDCourseID = req.TTDCourseID
	}

	if err := s.repo.Course.Update(ctx, course); err != nil {
		s.logger.Error("update course failed", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	return toCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, code string) error {
	if _, err := s.repo.Course.GetByCode(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: course %s", apperrors.ErrNotFound, code)
		}
		return err
	}
	return s.repo.Course.Delete(ctx, code)
}

func toCourseResponse(course *model.Course) *dto.CourseResponse {
	return &dto.CourseResponse{
		Code:                course.Code,
		Name:                course.Name,
		LectureUnits:        course.LectureUnits,
		PracticalUnits:      course.PracticalUnits,
		TotalUnits:          course.TotalUnits,
		OfferedAs:           course.OfferedAs,
		OfferedTo:           course.OfferedTo,
		OfferedAlsoBy:       course.OfferedAlsoBy,
		TTDCourseID:         course.TTDCourseID,
		MarkedForAllocation: course.MarkedForAllocation,
		FetchedFromTTD:      course.FetchedFromTTD,
	}
}
