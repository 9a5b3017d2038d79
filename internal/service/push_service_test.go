package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"acadflow/backend/internal/dto"
	"acadflow/backend/internal/model"
	"acadflow/backend/pkg/apperrors"
)

func setupPushService() (PushService, *testStore, *fakeTTDClient) {
	ts := newTestStore()
	ttdc := &fakeTTDClient{}
	svc := NewPushService(ts.repo, ttdc, zap.NewNop())
	return svc, ts, ttdc
}

// seedMaster wires a master with one staffed lecture section under the given
// semester, bypassing the allocation service.
func seedMaster(ts *testStore, semesterID, masterID, courseCode, instructorEmail string, at time.Time) {
	ts.allocation.masters[masterID] = &model.MasterAllocation{
		MasterID: masterID, SemesterID: semesterID, CourseCode: courseCode,
	}
	sectionID := masterID + "-s1"
	ts.allocation.sections[sectionID] = &model.AllocationSection{
		SectionID: sectionID, MasterID: masterID, Type: model.SectionTypeLecture,
		CreatedAt: at,
	}
	ts.allocation.rows = append(ts.allocation.rows, model.SectionInstructor{
		SectionID: sectionID, InstructorEmail: instructorEmail,
	})
}

func TestPushService_Push_RequiresCompletedAllocation(t *testing.T) {
	svc, ts, _ := setupPushService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)

	_, err := svc.Push(context.Background(), &dto.PushRequest{IdentityToken: "tok"})
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got: %v", err)
	}
}

func TestPushService_Push_RejectedTokenAbortsEverything(t *testing.T) {
	svc, ts, ttdc := setupPushService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationCompleted)
	ts.addFaculty("a@univ.edu", "A", "P001")
	course := ts.addCourse("CS F211", 3, 0, true)
	course.TTDCourseID = strPtr("ttd-101")
	seedMaster(ts, "sem-1", "m1", "CS F211", "a@univ.edu", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ttdc.verifyErr = errors.New("token rejected")

	_, err := svc.Push(context.Background(), &dto.PushRequest{IdentityToken: "tok"})
	if !errors.Is(err, apperrors.ErrExternal) {
		t.Errorf("expected ErrExternal, got: %v", err)
	}
	if len(ttdc.pushed) != 0 {
		t.Error("no course may be pushed when the token is rejected")
	}
}

func TestPushService_Push_SkipsUnsyncedAndMultiDepartment(t *testing.T) {
	svc, ts, ttdc := setupPushService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationCompleted)
	ts.addFaculty("a@univ.edu", "A", "P001")

	synced := ts.addCourse("CS F211", 3, 0, true)
	synced.TTDCourseID = strPtr("ttd-101")
	ts.addCourse("CS F222", 3, 0, true) // never synced with TTD

	shared := ts.addCourse("CS F301", 3, 0, true)
	shared.TTDCourseID = strPtr("ttd-301")
	shared.OfferedAlsoBy = model.StringList{"EEE"}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedMaster(ts, "sem-1", "m1", "CS F211", "a@univ.edu", base)
	seedMaster(ts, "sem-1", "m2", "CS F222", "a@univ.edu", base.Add(time.Minute))
	seedMaster(ts, "sem-1", "m3", "CS F301", "a@univ.edu", base.Add(2*time.Minute))

	resp, err := svc.Push(context.Background(), &dto.PushRequest{IdentityToken: "tok"})
	if err != nil {
		t.Fatalf("Push should succeed: %v", err)
	}
	if resp.Pushed != 1 || resp.Failed != 0 {
		t.Errorf("expected 1 pushed, got %+v", resp)
	}
	if len(resp.Skipped) != 2 || resp.Skipped[0] != "CS F222" || resp.Skipped[1] != "CS F301" {
		t.Errorf("expected CS F222 and CS F301 skipped, got %v", resp.Skipped)
	}
	if len(ttdc.pushed) != 1 || ttdc.pushed[0].CourseID != "ttd-101" {
		t.Errorf("only the synced single-department course should reach TTD: %v", ttdc.pushed)
	}
}

func TestPushService_Push_MultiDepartmentOptIn(t *testing.T) {
	svc, ts, ttdc := setupPushService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationCompleted)
	ts.addFaculty("a@univ.edu", "A", "P001")
	shared := ts.addCourse("CS F301", 3, 0, true)
	shared.TTDCourseID = strPtr("ttd-301")
	shared.OfferedAlsoBy = model.StringList{"EEE"}
	seedMaster(ts, "sem-1", "m1", "CS F301", "a@univ.edu", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	resp, err := svc.Push(context.Background(), &dto.PushRequest{
		IdentityToken:              "tok",
		SendMultiDepartmentCourses: true,
	})
	if err != nil {
		t.Fatalf("Push should succeed: %v", err)
	}
	if resp.Pushed != 1 || len(resp.Skipped) != 0 {
		t.Errorf("opted-in multi-department course should be pushed: %+v", resp)
	}
	if len(ttdc.pushed) != 1 {
		t.Errorf("expected 1 push, got %d", len(ttdc.pushed))
	}
}

func TestPushService_Push_PerCourseFailureIsIsolated(t *testing.T) {
	svc, ts, ttdc := setupPushService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationCompleted)
	ts.addFaculty("a@univ.edu", "A", "P001")
	one := ts.addCourse("CS F211", 3, 0, true)
	one.TTDCourseID = strPtr("ttd-101")
	two := ts.addCourse("CS F222", 3, 0, true)
	two.TTDCourseID = strPtr("ttd-102")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedMaster(ts, "sem-1", "m1", "CS F211", "a@univ.edu", base)
	seedMaster(ts, "sem-1", "m2", "CS F222", "a@univ.edu", base.Add(time.Minute))
	ttdc.failCourses = map[string]error{"ttd-101": errors.New("upstream 500")}

	resp, err := svc.Push(context.Background(), &dto.PushRequest{IdentityToken: "tok"})
	if err != nil {
		t.Fatalf("Push should succeed: %v", err)
	}
	if resp.Pushed != 1 || resp.Failed != 1 {
		t.Errorf("expected one success and one failure, got %+v", resp)
	}
	for _, r := range resp.Results {
		switch r.CourseCode {
		case "CS F211":
			if r.OK || r.Error == "" {
				t.Errorf("CS F211 should record its failure: %+v", r)
			}
		case "CS F222":
			if !r.OK {
				t.Errorf("CS F222 should succeed: %+v", r)
			}
		}
	}
	if len(ttdc.pushed) != 1 || ttdc.pushed[0].CourseID != "ttd-102" {
		t.Errorf("only the healthy course should be recorded: %v", ttdc.pushed)
	}
}

func TestPushService_Push_ProjectsSectionsAndIC(t *testing.T) {
	svc, ts, ttdc := setupPushService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationCompleted)
	ts.addFaculty("a@univ.edu", "A", "P001")
	ts.addFaculty("b@univ.edu", "B", "P002")
	ts.addPhD("p@univ.edu", "P", "E001", model.PhDTypeFullTime)
	course := ts.addCourse("CS F211", 3, 1, true)
	course.TTDCourseID = strPtr("ttd-101")

	ts.allocation.masters["m1"] = &model.MasterAllocation{
		MasterID: "m1", SemesterID: "sem-1", CourseCode: "CS F211",
		ICEmail: strPtr("a@univ.edu"),
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ts.allocation.sections["s1"] = &model.AllocationSection{
		SectionID: "s1", MasterID: "m1", Type: model.SectionTypeLecture,
		TimetableRoomID: strPtr("R101"), CreatedAt: base,
	}
	ts.allocation.sections["s2"] = &model.AllocationSection{
		SectionID: "s2", MasterID: "m1", Type: model.SectionTypeLecture,
		CreatedAt: base.Add(time.Minute),
	}
	ts.allocation.sections["s3"] = &model.AllocationSection{
		SectionID: "s3", MasterID: "m1", Type: model.SectionTypeTutorial,
		CreatedAt: base.Add(2 * time.Minute),
	}
	ts.allocation.rows = append(ts.allocation.rows,
		model.SectionInstructor{SectionID: "s1", InstructorEmail: "a@univ.edu"},
		model.SectionInstructor{SectionID: "s2", InstructorEmail: "b@univ.edu"},
		model.SectionInstructor{SectionID: "s3", InstructorEmail: "p@univ.edu"},
	)

	resp, err := svc.Push(context.Background(), &dto.PushRequest{IdentityToken: "tok"})
	if err != nil {
		t.Fatalf("Push should succeed: %v", err)
	}
	if resp.Pushed != 1 {
		t.Fatalf("expected 1 pushed, got %+v", resp)
	}

	payload := ttdc.pushed[0]
	if payload.CourseID != "ttd-101" || !payload.Active {
		t.Errorf("unexpected course header: %+v", payload)
	}
	if len(payload.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(payload.Sections))
	}
	if payload.Sections[0].Label != "L1" || payload.Sections[1].Label != "L2" || payload.Sections[2].Label != "T1" {
		t.Errorf("section labels should be type letter plus ordinal: %+v", payload.Sections)
	}
	if len(payload.Sections[0].InstructorIDs) != 1 || payload.Sections[0].InstructorIDs[0] != "P001" {
		t.Errorf("faculty should be referred to by PSRN: %v", payload.Sections[0].InstructorIDs)
	}
	if len(payload.Sections[2].InstructorIDs) != 1 || payload.Sections[2].InstructorIDs[0] != "E001" {
		t.Errorf("phd students should be referred to by ERP id: %v", payload.Sections[2].InstructorIDs)
	}
	if len(payload.RoomIDs) != 1 || payload.RoomIDs[0] != "R101" {
		t.Errorf("room ids should carry over: %v", payload.RoomIDs)
	}
	if payload.ICID != "P001" {
		t.Errorf("IC should resolve to the external id, got %q", payload.ICID)
	}
}
