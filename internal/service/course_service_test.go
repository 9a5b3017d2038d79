package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"acadflow/backend/internal/dto"
	"acadflow/backend/internal/model"
	"acadflow/backend/pkg/apperrors"
)

func setupCourseService() (CourseService, *testStore) {
	ts := newTestStore()
	svc := NewCourseService(ts.repo, zap.NewNop())
	return svc, ts
}

func TestCourseService_Create_DuplicateCodeConflicts(t *testing.T) {
	svc, _ := setupCourseService()
	req := &dto.CreateCourseRequest{
		Code: "CS F211", Name: "Data Structures",
		LectureUnits: 3, PracticalUnits: 1, TotalUnits: 4,
		OfferedAs: model.OfferedAsCDC, OfferedTo: model.OfferedToFD,
	}

	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("first create should succeed: %v", err)
	}
	_, err := svc.Create(context.Background(), req)
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("expected ErrConflict, got: %v", err)
	}
}

func TestCourseService_List_MarkedFilter(t *testing.T) {
	svc, ts := setupCourseService()
	ts.addCourse("CS F211", 3, 1, true)
	ts.addCourse("CS F222", 3, 0, false)

	marked, err := svc.List(context.Background(), true)
	if err != nil {
		t.Fatalf("List should succeed: %v", err)
	}
	if len(marked) != 1 || marked[0].Code != "CS F211" {
		t.Errorf("expected only the marked course, got %v", marked)
	}

	all, err := svc.List(context.Background(), false)
	if err != nil {
		t.Fatalf("List should succeed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected the full catalog, got %d entries", len(all))
	}
}

func TestCourseService_Update_PartialPatch(t *testing.T) {
	svc, ts := setupCourseService()
	ts.addCourse("CS F211", 3, 1, false)

	updated, err := svc.Update(context.Background(), "CS F211", &dto.UpdateCourseRequest{
		Name:        strPtr("Data Structures & Algorithms"),
		TTDCourseID: strPtr("ttd-101"),
	})
	if err != nil {
		t.Fatalf("Update should succeed: %v", err)
	}
	if updated.Name != "Data Structures & Algorithms" {
		t.Errorf("name should change, got %q", updated.Name)
	}
	if updated.LectureUnits != 3 {
		t.Errorf("untouched members must survive a patch, got %d lecture units", updated.LectureUnits)
	}
	if updated.TTDCourseID == nil || *updated.TTDCourseID != "ttd-101" {
		t.Error("ttd course id should be recorded")
	}
}

func TestCourseService_Delete_Unknown(t *testing.T) {
	svc, _ := setupCourseService()

	err := svc.Delete(context.Background(), "CS F999")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}
