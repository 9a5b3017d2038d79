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

func setupAllocationService() (AllocationService, *testStore) {
	ts := newTestStore()
	svc := NewAllocationService(ts.repo, zap.NewNop())
	return svc, ts
}

// ── Derived status ──

func TestAllocationService_Status_NoSemesters(t *testing.T) {
	svc, _ := setupAllocationService()

	_, err := svc.Status(context.Background())
	if !errors.Is(err, apperrors.ErrNoActiveAllocation) {
		t.Errorf("expected ErrNoActiveAllocation, got: %v", err)
	}
}

func TestAllocationService_Status_DerivesPerCourse(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addFaculty("a@univ.edu", "A", "P001")
	ts.addCourse("CS F211", 3, 1, true)
	ts.addCourse("CS F222", 3, 0, true)

	lec, err := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeLecture,
	})
	if err != nil {
		t.Fatalf("CreateSection: %v", err)
	}
	if _, err := svc.AssignInstructor(context.Background(), lec.SectionID, "a@univ.edu"); err != nil {
		t.Fatalf("AssignInstructor: %v", err)
	}
	// Second section left without an instructor.
	if _, err := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeTutorial,
	}); err != nil {
		t.Fatalf("CreateSection: %v", err)
	}

	statuses, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status should succeed: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 marked courses, got %d", len(statuses))
	}
	if statuses[0].CourseCode != "CS F211" || statuses[0].Status != model.CourseStatusPending {
		t.Errorf("CS F211 should be pending, got %+v", statuses[0])
	}
	if statuses[1].CourseCode != "CS F222" || statuses[1].Status != model.CourseStatusNotStarted {
		t.Errorf("CS F222 should be not started, got %+v", statuses[1])
	}
}

func TestAllocationService_Status_AllocatedWhenEverySectionStaffed(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addFaculty("a@univ.edu", "A", "P001")
	ts.addCourse("CS F211", 3, 1, true)

	lec, _ := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeLecture,
	})
	if _, err := svc.AssignInstructor(context.Background(), lec.SectionID, "a@univ.edu"); err != nil {
		t.Fatalf("AssignInstructor: %v", err)
	}

	statuses, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status should succeed: %v", err)
	}
	if statuses[0].Status != model.CourseStatusAllocated {
		t.Errorf("expected allocated, got %s", statuses[0].Status)
	}
}

// ── Section management ──

func TestAllocationService_CreateSection_RequiresAllocationPhase(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationFormCollection)
	ts.addCourse("CS F211", 3, 1, true)

	_, err := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeLecture,
	})
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got: %v", err)
	}
}

func TestAllocationService_CreateSection_UnmarkedCourse(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addCourse("CS F211", 3, 1, false)

	_, err := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeLecture,
	})
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got: %v", err)
	}
}

func TestAllocationService_CreateSection_NumbersByTypeAndOrder(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addCourse("CS F211", 3, 1, true)

	first, _ := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeLecture,
	})
	second, _ := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeLecture,
	})
	tut, _ := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeTutorial,
	})

	if first.Number != 1 || second.Number != 2 {
		t.Errorf("lecture sections should number 1 and 2, got %d and %d", first.Number, second.Number)
	}
	if tut.Number != 1 {
		t.Errorf("tutorial numbering is independent of lectures, got %d", tut.Number)
	}
	if first.MasterID != tut.MasterID {
		t.Error("sections of one course should share a master")
	}
}

func TestAllocationService_DeleteSection_Unknown(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)

	err := svc.DeleteSection(context.Background(), "missing")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestAllocationService_DeleteSection_PastSemesterRejected(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-old", 2025, model.SemesterTypeOdd, model.AllocationCompleted)
	ts.addSemester("sem-new", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addCourse("CS F100", 3, 0, true)
	ts.allocation.masters["m-old"] = &model.MasterAllocation{
		MasterID: "m-old", SemesterID: "sem-old", CourseCode: "CS F100",
	}
	ts.allocation.sections["s-old"] = &model.AllocationSection{
		SectionID: "s-old", MasterID: "m-old", Type: model.SectionTypeLecture,
		CreatedAt: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
	}

	err := svc.DeleteSection(context.Background(), "s-old")
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got: %v", err)
	}
}

// ── Instructor assignment ──

func TestAllocationService_AssignInstructor_DuplicateConflicts(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addFaculty("a@univ.edu", "A", "P001")
	ts.addCourse("CS F211", 3, 1, true)
	sec, _ := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeLecture,
	})

	if _, err := svc.AssignInstructor(context.Background(), sec.SectionID, "a@univ.edu"); err != nil {
		t.Fatalf("first assignment should succeed: %v", err)
	}
	_, err := svc.AssignInstructor(context.Background(), sec.SectionID, "a@univ.edu")
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("expected ErrConflict, got: %v", err)
	}
}

func TestAllocationService_AssignInstructor_PartTimePhDIneligible(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addPhD("pt@univ.edu", "PT", "E002", model.PhDTypePartTime)
	ts.addCourse("CS F211", 3, 1, true)
	sec, _ := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeLecture,
	})

	_, err := svc.AssignInstructor(context.Background(), sec.SectionID, "pt@univ.edu")
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got: %v", err)
	}
}

func TestAllocationService_DismissInstructor_NotOnSection(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addFaculty("a@univ.edu", "A", "P001")
	ts.addCourse("CS F211", 3, 1, true)
	sec, _ := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeLecture,
	})

	err := svc.DismissInstructor(context.Background(), sec.SectionID, "a@univ.edu")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestAllocationService_SetIC_NonFacultyRejected(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addPhD("phd@univ.edu", "P", "E001", model.PhDTypeFullTime)
	ts.addCourse("CS F211", 3, 1, true)
	if _, err := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeLecture,
	}); err != nil {
		t.Fatalf("CreateSection: %v", err)
	}

	err := svc.SetIC(context.Background(), "CS F211", "phd@univ.edu")
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got: %v", err)
	}
}

func TestAllocationService_SetIC_Success(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addFaculty("ic@univ.edu", "IC", "P001")
	ts.addCourse("CS F211", 3, 1, true)
	sec, _ := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeLecture,
	})

	if err := svc.SetIC(context.Background(), "CS F211", "ic@univ.edu"); err != nil {
		t.Fatalf("SetIC should succeed: %v", err)
	}
	master := ts.allocation.masters[sec.MasterID]
	if master.ICEmail == nil || *master.ICEmail != "ic@univ.edu" {
		t.Error("master should record the instructor-in-charge")
	}
}

// ── Candidates ──

// wireForm links a bare form with one preference field to the latest
// semester, bypassing the form service.
func wireForm(ts *testStore, semester *model.Semester, sectionType string) (formID, fieldID string) {
	formID, fieldID = "form-1", "fld-1"
	ts.forms.forms[formID] = &model.Form{FormID: formID, SemesterID: semester.SemesterID}
	ts.forms.fields[fieldID] = &model.TemplateField{
		FieldID: fieldID, Kind: model.FieldKindPreference,
		PreferenceType: strPtr(sectionType),
	}
	semester.FormID = &formID
	return formID, fieldID
}

func TestAllocationService_Candidates_RankedThenUnrankedByEmail(t *testing.T) {
	svc, ts := setupAllocationService()
	sem := ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addFaculty("a@univ.edu", "A", "P001")
	ts.addFaculty("b@univ.edu", "B", "P002")
	ts.addFaculty("c@univ.edu", "C", "P003")
	formID, fieldID := wireForm(ts, sem, model.SectionTypeLecture)
	ts.forms.responses = append(ts.forms.responses,
		model.FormResponse{
			FormID: formID, TemplateFieldID: fieldID,
			SubmittedByEmail: "b@univ.edu", CourseCode: strPtr("CS F211"), Preference: intPtr(2),
		},
		model.FormResponse{
			FormID: formID, TemplateFieldID: fieldID,
			SubmittedByEmail: "c@univ.edu", CourseCode: strPtr("CS F211"), Preference: intPtr(1),
		},
	)

	candidates, err := svc.Candidates(context.Background(), "CS F211", model.SectionTypeLecture, "", "")
	if err != nil {
		t.Fatalf("Candidates should succeed: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}
	if candidates[0].Email != "c@univ.edu" || candidates[1].Email != "b@univ.edu" {
		t.Errorf("ranked candidates out of order: %v", candidates)
	}
	if candidates[2].Email != "a@univ.edu" || candidates[2].Preference != nil {
		t.Errorf("unranked candidate should come last with nil preference: %+v", candidates[2])
	}
}

func TestAllocationService_Candidates_ExcludesAssignedInstructors(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addFaculty("a@univ.edu", "A", "P001")
	ts.addFaculty("b@univ.edu", "B", "P002")
	ts.addCourse("CS F211", 3, 1, true)
	sec, _ := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeLecture,
	})
	if _, err := svc.AssignInstructor(context.Background(), sec.SectionID, "a@univ.edu"); err != nil {
		t.Fatalf("AssignInstructor: %v", err)
	}

	candidates, err := svc.Candidates(context.Background(), "CS F211", model.SectionTypeLecture, "", sec.SectionID)
	if err != nil {
		t.Fatalf("Candidates should succeed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Email != "b@univ.edu" {
		t.Errorf("assigned instructor should be excluded, got %v", candidates)
	}
}

func TestAllocationService_Candidates_FilterByUserType(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addFaculty("a@univ.edu", "A", "P001")
	ts.addPhD("ft@univ.edu", "FT", "E001", model.PhDTypeFullTime)
	ts.addPhD("pt@univ.edu", "PT", "E002", model.PhDTypePartTime)

	candidates, err := svc.Candidates(context.Background(), "CS F211", model.SectionTypeTutorial, model.UserTypePhD, "")
	if err != nil {
		t.Fatalf("Candidates should succeed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Email != "ft@univ.edu" {
		t.Errorf("only full-time phd students are candidates, got %v", candidates)
	}
}

// ── Instructor details ──

func TestAllocationService_InstructorDetails_SplitsCurrentAndPast(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-old", 2025, model.SemesterTypeOdd, model.AllocationCompleted)
	ts.addSemester("sem-new", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addFaculty("a@univ.edu", "A", "P001")
	ts.addFaculty("b@univ.edu", "B", "P002")
	ts.addCourse("CS F100", 3, 0, true)
	ts.addCourse("CS F211", 3, 1, true)

	// Past holding, seeded directly.
	ts.allocation.masters["m-old"] = &model.MasterAllocation{
		MasterID: "m-old", SemesterID: "sem-old", CourseCode: "CS F100",
	}
	ts.allocation.sections["s-old"] = &model.AllocationSection{
		SectionID: "s-old", MasterID: "m-old", Type: model.SectionTypeLecture,
		CreatedAt: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	ts.allocation.rows = append(ts.allocation.rows, model.SectionInstructor{
		SectionID: "s-old", InstructorEmail: "a@univ.edu",
	})

	// Current semester: a lecture shared with b, plus a tutorial alone.
	lec, _ := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeLecture,
	})
	if _, err := svc.AssignInstructor(context.Background(), lec.SectionID, "a@univ.edu"); err != nil {
		t.Fatalf("AssignInstructor: %v", err)
	}
	if _, err := svc.AssignInstructor(context.Background(), lec.SectionID, "b@univ.edu"); err != nil {
		t.Fatalf("AssignInstructor: %v", err)
	}
	tut, _ := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeTutorial,
	})
	if _, err := svc.AssignInstructor(context.Background(), tut.SectionID, "a@univ.edu"); err != nil {
		t.Fatalf("AssignInstructor: %v", err)
	}

	details, err := svc.InstructorDetails(context.Background(), "a@univ.edu")
	if err != nil {
		t.Fatalf("InstructorDetails should succeed: %v", err)
	}
	if len(details.CurrentAllocation[model.SectionTypeLecture]) != 1 ||
		len(details.CurrentAllocation[model.SectionTypeTutorial]) != 1 {
		t.Errorf("current allocation should group by type: %+v", details.CurrentAllocation)
	}
	if len(details.PastAllocation[model.SectionTypeLecture]) != 1 {
		t.Errorf("past holding should land in past allocation: %+v", details.PastAllocation)
	}
	// 3 lecture units split across two faculty, plus a flat tutorial unit.
	if details.TotalLoad != 2.5 {
		t.Errorf("expected total load 2.5, got %v", details.TotalLoad)
	}
}

// ── Load matrix ──

func TestAllocationService_LoadMatrix_SplitsUnitsAcrossFaculty(t *testing.T) {
	svc, ts := setupAllocationService()
	ts.addSemester("sem-1", 2026, model.SemesterTypeOdd, model.AllocationInProgress)
	ts.addFaculty("a@univ.edu", "A", "P001")
	ts.addFaculty("b@univ.edu", "B", "P002")
	ts.addPhD("p@univ.edu", "P", "E001", model.PhDTypeFullTime)
	ts.addCourse("CS F211", 3, 0, true)

	lec, _ := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeLecture,
	})
	for _, email := range []string{"a@univ.edu", "b@univ.edu", "p@univ.edu"} {
		if _, err := svc.AssignInstructor(context.Background(), lec.SectionID, email); err != nil {
			t.Fatalf("AssignInstructor(%s): %v", email, err)
		}
	}
	tut, _ := svc.CreateSection(context.Background(), &dto.CreateSectionRequest{
		CourseCode: "CS F211", Type: model.SectionTypeTutorial,
	})
	if _, err := svc.AssignInstructor(context.Background(), tut.SectionID, "p@univ.edu"); err != nil {
		t.Fatalf("AssignInstructor: %v", err)
	}

	matrix, err := svc.LoadMatrix(context.Background())
	if err != nil {
		t.Fatalf("LoadMatrix should succeed: %v", err)
	}
	want := []string{"a@univ.edu", "b@univ.edu", "p@univ.edu"}
	if len(matrix.Instructors) != len(want) {
		t.Fatalf("expected %d columns, got %d", len(want), len(matrix.Instructors))
	}
	for i, email := range want {
		if matrix.Instructors[i] != email {
			t.Fatalf("columns should sort by email: %v", matrix.Instructors)
		}
	}
	if len(matrix.Rows) != 2 {
		t.Fatalf("expected a lecture row and a tutorial row, got %d", len(matrix.Rows))
	}

	lecture := matrix.Rows[0]
	if lecture.Type != model.SectionTypeLecture {
		t.Fatalf("first row should be the lecture row, got %s", lecture.Type)
	}
	// 3 units split across the two faculty; the phd student carries none.
	if lecture.Cells[0].Load != 1.5 || lecture.Cells[1].Load != 1.5 {
		t.Errorf("faculty lecture load should be 1.5 each: %+v", lecture.Cells)
	}
	if !lecture.Cells[2].NA || lecture.Cells[2].Load != 0 {
		t.Errorf("phd lecture cell should be NA: %+v", lecture.Cells[2])
	}

	tutorial := matrix.Rows[1]
	if tutorial.Cells[2].Load != 1 {
		t.Errorf("tutorial load is flat 1 per instructor: %+v", tutorial.Cells)
	}

	if matrix.Totals[0].Load != 1.5 || matrix.Totals[2].Load != 1 {
		t.Errorf("totals row mismatch: %+v", matrix.Totals)
	}
}
