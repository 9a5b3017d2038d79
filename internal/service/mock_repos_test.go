package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"acadflow/backend/internal/model"
	"acadflow/backend/internal/repository"
	"acadflow/backend/pkg/mailer"
	"acadflow/backend/pkg/ttd"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListActiveByTypes(_ context.Context, types []string) ([]model.User, error) {
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}
	var result []model.User
	for _, u := range m.users {
		if !u.Deactivated && typeSet[u.Type] {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.Email]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.Email] = user
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if _, ok := m.courses[course.Code]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.courses[course.Code] = course
	return nil
}

func (m *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	if c, ok := m.courses[code]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) List(_ context.Context, markedOnly bool) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.courses {
		if markedOnly && !c.MarkedForAllocation {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	m.courses[course.Code] = course
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, code string) error {
	delete(m.courses, code)
	return nil
}

func (m *mockCourseRepo) SetMarked(_ context.Context, codes []string, marked bool) error {
	for _, code := range codes {
		if _, ok := m.courses[code]; !ok {
			return gorm.ErrRecordNotFound
		}
	}
	for _, code := range codes {
		m.courses[code].MarkedForAllocation = marked
	}
	return nil
}

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	semesters map[string]*model.Semester
	forms     *formState // nil-safe; set when the form mocks share state
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{semesters: make(map[string]*model.Semester)}
}

func (m *mockSemesterRepo) Create(_ context.Context, semester *model.Semester) error {
	for _, s := range m.semesters {
		if s.AcademicYear == semester.AcademicYear && s.SemesterType == semester.SemesterType {
			return gorm.ErrDuplicatedKey
		}
	}
	if semester.SemesterID == "" {
		semester.SemesterID = fmt.Sprintf("sem-%d-%d", semester.AcademicYear, semester.SemesterType)
	}
	m.semesters[semester.SemesterID] = semester
	return nil
}

func (m *mockSemesterRepo) GetByID(_ context.Context, id string) (*model.Semester, error) {
	if s, ok := m.semesters[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) Latest(_ context.Context) (*model.Semester, error) {
	var latest *model.Semester
	for _, s := range m.semesters {
		if latest == nil ||
			s.AcademicYear > latest.AcademicYear ||
			(s.AcademicYear == latest.AcademicYear && s.SemesterType > latest.SemesterType) {
			latest = s
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (m *mockSemesterRepo) List(_ context.Context) ([]model.Semester, error) {
	var result []model.Semester
	for _, s := range m.semesters {
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockSemesterRepo) Update(_ context.Context, semester *model.Semester) error {
	m.semesters[semester.SemesterID] = semester
	return nil
}

func (m *mockSemesterRepo) ExistsIncomplete(_ context.Context) (bool, error) {
	for _, s := range m.semesters {
		if s.AllocationStatus != model.AllocationCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSemesterRepo) TransitionWithFormDeadline(_ context.Context, semester *model.Semester, formID string, deadline time.Time) error {
	m.semesters[semester.SemesterID] = semester
	if m.forms != nil {
		if f, ok := m.forms.forms[formID]; ok {
			d := deadline
			f.Deadline = &d
		}
	}
	return nil
}

// ── Mock form engine repositories (shared state) ──

type formState struct {
	templates map[string]*model.FormTemplate
	forms     map[string]*model.Form
	fields    map[string]*model.TemplateField
	responses []model.FormResponse
	seq       int
}

func newFormState() *formState {
	return &formState{
		templates: make(map[string]*model.FormTemplate),
		forms:     make(map[string]*model.Form),
		fields:    make(map[string]*model.TemplateField),
	}
}

func (st *formState) nextID(prefix string) string {
	st.seq++
	return fmt.Sprintf("%s-%d", prefix, st.seq)
}

type mockTemplateRepo struct{ st *formState }

func (m *mockTemplateRepo) Create(_ context.Context, template *model.FormTemplate, fields []model.TemplateField) error {
	if template.TemplateID == "" {
		template.TemplateID = m.st.nextID("tpl")
	}
	for i := range fields {
		fields[i].TemplateID = template.TemplateID
		if fields[i].FieldID == "" {
			fields[i].FieldID = m.st.nextID("fld")
		}
		f := fields[i]
		m.st.fields[f.FieldID] = &f
	}
	template.Fields = fields
	m.st.templates[template.TemplateID] = template
	return nil
}

func (m *mockTemplateRepo) GetByID(_ context.Context, id string) (*model.FormTemplate, error) {
	if t, ok := m.st.templates[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTemplateRepo) List(_ context.Context) ([]model.FormTemplate, error) {
	var result []model.FormTemplate
	for _, t := range m.st.templates {
		result = append(result, *t)
	}
	return result, nil
}

type mockFormRepo struct{ st *formState }

func (m *mockFormRepo) CreateWithFields(_ context.Context, form *model.Form, fields []model.TemplateField) error {
	if form.FormID == "" {
		form.FormID = m.st.nextID("form")
	}
	for i := range fields {
		fields[i].FieldID = m.st.nextID("fld")
		fields[i].FormID = &form.FormID
		f := fields[i]
		m.st.fields[f.FieldID] = &f
	}
	form.Fields = fields
	m.st.forms[form.FormID] = form
	return nil
}

func (m *mockFormRepo) GetByID(_ context.Context, id string) (*model.Form, error) {
	if f, ok := m.st.forms[id]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFormRepo) SetDeadline(_ context.Context, formID string, deadline time.Time) error {
	if f, ok := m.st.forms[formID]; ok {
		d := deadline
		f.Deadline = &d
	}
	return nil
}

func (m *mockFormRepo) SetEmailMessageID(_ context.Context, formID string, messageID string) error {
	if f, ok := m.st.forms[formID]; ok {
		f.EmailMessageID = messageID
	}
	return nil
}

type mockResponseRepo struct{ st *formState }

func (m *mockResponseRepo) ReplaceForFields(_ context.Context, formID, email string, rowsByField map[string][]model.FormResponse) error {
	kept := m.st.responses[:0]
	for _, r := range m.st.responses {
		if _, submitted := rowsByField[r.TemplateFieldID]; submitted &&
			r.FormID == formID && r.SubmittedByEmail == email {
			continue
		}
		kept = append(kept, r)
	}
	m.st.responses = kept
	for _, rows := range rowsByField {
		m.st.responses = append(m.st.responses, rows...)
	}
	return nil
}

func (m *mockResponseRepo) ListByForm(_ context.Context, formID string) ([]model.FormResponse, error) {
	var result []model.FormResponse
	for _, r := range m.st.responses {
		if r.FormID != formID {
			continue
		}
		r.TemplateField = m.st.fields[r.TemplateFieldID]
		result = append(result, r)
	}
	return result, nil
}

func (m *mockResponseRepo) DistinctSubmitters(_ context.Context, formID string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string
	for _, r := range m.st.responses {
		if r.FormID == formID && !seen[r.SubmittedByEmail] {
			seen[r.SubmittedByEmail] = true
			result = append(result, r.SubmittedByEmail)
		}
	}
	return result, nil
}

// ── Mock AllocationRepository ──

type mockAllocationRepo struct {
	users    map[string]*model.User
	courses  map[string]*model.Course
	masters  map[string]*model.MasterAllocation
	sections map[string]*model.AllocationSection
	rows     []model.SectionInstructor
	seq      int
	clock    time.Time
}

func newMockAllocationRepo(users map[string]*model.User, courses map[string]*model.Course) *mockAllocationRepo {
	return &mockAllocationRepo{
		users:    users,
		courses:  courses,
		masters:  make(map[string]*model.MasterAllocation),
		sections: make(map[string]*model.AllocationSection),
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *mockAllocationRepo) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *mockAllocationRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *mockAllocationRepo) CreateMaster(_ context.Context, master *model.MasterAllocation) error {
	for _, existing := range m.masters {
		if existing.SemesterID == master.SemesterID && existing.CourseCode == master.CourseCode {
			return gorm.ErrDuplicatedKey
		}
	}
	if master.MasterID == "" {
		master.MasterID = m.nextID("master")
	}
	m.masters[master.MasterID] = master
	return nil
}

func (m *mockAllocationRepo) GetMasterByID(_ context.Context, id string) (*model.MasterAllocation, error) {
	master, ok := m.masters[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *master
	copied.Course = m.courses[master.CourseCode]
	return &copied, nil
}

func (m *mockAllocationRepo) GetMaster(_ context.Context, semesterID, courseCode string) (*model.MasterAllocation, error) {
	for _, master := range m.masters {
		if master.SemesterID == semesterID && master.CourseCode == courseCode {
			copied := *master
			copied.Course = m.courses[courseCode]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAllocationRepo) sectionsOf(masterID string) []model.AllocationSection {
	var result []model.AllocationSection
	for _, s := range m.sections {
		if s.MasterID != masterID {
			continue
		}
		copied := *s
		copied.Instructors = m.instructorsOf(s.SectionID)
		result = append(result, copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

func (m *mockAllocationRepo) instructorsOf(sectionID string) []model.SectionInstructor {
	var result []model.SectionInstructor
	for _, r := range m.rows {
		if r.SectionID == sectionID {
			r.Instructor = m.users[r.InstructorEmail]
			result = append(result, r)
		}
	}
	return result
}

func (m *mockAllocationRepo) ListMasters(_ context.Context, semesterID string) ([]model.MasterAllocation, error) {
	var result []model.MasterAllocation
	for _, master := range m.masters {
		if master.SemesterID != semesterID {
			continue
		}
		copied := *master
		copied.Course = m.courses[master.CourseCode]
		copied.Sections = m.sectionsOf(master.MasterID)
		result = append(result, copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CourseCode < result[j].CourseCode })
	return result, nil
}

func (m *mockAllocationRepo) SetIC(_ context.Context, masterID string, icEmail string) error {
	master, ok := m.masters[masterID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	master.ICEmail = &icEmail
	return nil
}

func (m *mockAllocationRepo) CreateSection(_ context.Context, section *model.AllocationSection) error {
	if section.SectionID == "" {
		section.SectionID = m.nextID("sec")
	}
	section.CreatedAt = m.tick()
	m.sections[section.SectionID] = section
	return nil
}

func (m *mockAllocationRepo) GetSection(_ context.Context, sectionID string) (*model.AllocationSection, error) {
	section, ok := m.sections[sectionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *section
	copied.Instructors = m.instructorsOf(sectionID)
	if master, ok := m.masters[section.MasterID]; ok {
		mc := *master
		mc.Course = m.courses[master.CourseCode]
		copied.Master = &mc
	}
	return &copied, nil
}

func (m *mockAllocationRepo) DeleteSection(_ context.Context, sectionID string) error {
	delete(m.sections, sectionID)
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.SectionID != sectionID {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

func (m *mockAllocationRepo) ListSiblingSections(_ context.Context, masterID, sectionType string) ([]model.AllocationSection, error) {
	var result []model.AllocationSection
	for _, s := range m.sectionsOf(masterID) {
		if s.Type == sectionType {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockAllocationRepo) AddInstructor(_ context.Context, row *model.SectionInstructor) error {
	for _, existing := range m.rows {
		if existing.SectionID == row.SectionID && existing.InstructorEmail == row.InstructorEmail {
			return gorm.ErrDuplicatedKey
		}
	}
	row.CreatedAt = m.tick()
	m.rows = append(m.rows, *row)
	return nil
}

func (m *mockAllocationRepo) RemoveInstructor(_ context.Context, sectionID, email string) (int64, error) {
	var affected int64
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.SectionID == sectionID && r.InstructorEmail == email {
			affected++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return affected, nil
}

func (m *mockAllocationRepo) ListSectionsByInstructor(_ context.Context, email string) ([]model.AllocationSection, error) {
	var result []model.AllocationSection
	for _, s := range m.sections {
		held := false
		for _, r := range m.rows {
			if r.SectionID == s.SectionID && r.InstructorEmail == email {
				held = true
				break
			}
		}
		if !held {
			continue
		}
		copied := *s
		copied.Instructors = m.instructorsOf(s.SectionID)
		if master, ok := m.masters[s.MasterID]; ok {
			mc := *master
			mc.Course = m.courses[master.CourseCode]
			mc.Sections = m.sectionsOf(master.MasterID)
			copied.Master = &mc
		}
		result = append(result, copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// ── Mock side-effect repositories ──

type mockHandoutRepo struct {
	requests []model.HandoutRequest
}

func (m *mockHandoutRepo) CreateBatch(_ context.Context, requests []model.HandoutRequest) error {
	m.requests = append(m.requests, requests...)
	return nil
}

type mockTodoRepo struct {
	todos []model.Todo
}

func (m *mockTodoRepo) CreateBatch(_ context.Context, todos []model.Todo) error {
	m.todos = append(m.todos, todos...)
	return nil
}

func (m *mockTodoRepo) CompleteByKind(_ context.Context, kind string) error {
	for i := range m.todos {
		if m.todos[i].Kind == kind {
			m.todos[i].Completed = true
		}
	}
	return nil
}

func (m *mockTodoRepo) CompleteForAssignee(_ context.Context, kind, assigneeEmail string) error {
	for i := range m.todos {
		if m.todos[i].Kind == kind && m.todos[i].AssigneeEmail == assigneeEmail {
			m.todos[i].Completed = true
		}
	}
	return nil
}

type mockNotificationRepo struct {
	notices []model.Notification
}

func (m *mockNotificationRepo) CreateBatch(_ context.Context, notices []model.Notification) error {
	m.notices = append(m.notices, notices...)
	return nil
}

// ── Fake outbound dependencies ──

type fakeMailer struct {
	sent    []*mailer.Message
	sendErr error
	seq     int
}

func (f *fakeMailer) Send(msg *mailer.Message) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.seq++
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("<msg-%d@acadflow>", f.seq), nil
}

func (f *fakeMailer) IsConfigured() bool { return true }

type fakeTTDClient struct {
	mu          sync.Mutex
	verifyErr   error
	failCourses map[string]error
	pushed      []*ttd.CoursePush
}

func (f *fakeTTDClient) VerifyIdentityToken(_ context.Context, _ string) error {
	return f.verifyErr
}

func (f *fakeTTDClient) PushCourse(_ context.Context, course *ttd.CoursePush) error {
	if err, ok := f.failCourses[course.CourseID]; ok {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, course)
	return nil
}

// ── Shared test fixture ──

// testStore bundles every mock behind one Repository so each test can reach
// into the state it cares about.
type testStore struct {
	users      *mockUserRepo
	courses    *mockCourseRepo
	semesters  *mockSemesterRepo
	forms      *formState
	allocation *mockAllocationRepo
	handouts   *mockHandoutRepo
	todos      *mockTodoRepo
	notices    *mockNotificationRepo
	repo       *repository.Repository
}

func newTestStore() *testStore {
	users := newMockUserRepo()
	courses := newMockCourseRepo()
	semesters := newMockSemesterRepo()
	forms := newFormState()
	semesters.forms = forms
	allocation := newMockAllocationRepo(users.users, courses.courses)
	handouts := &mockHandoutRepo{}
	todos := &mockTodoRepo{}
	notices := &mockNotificationRepo{}

	return &testStore{
		users:      users,
		courses:    courses,
		semesters:  semesters,
		forms:      forms,
		allocation: allocation,
		handouts:   handouts,
		todos:      todos,
		notices:    notices,
		repo: &repository.Repository{
			User:         users,
			Course:       courses,
			Semester:     semesters,
			Template:     &mockTemplateRepo{st: forms},
			Form:         &mockFormRepo{st: forms},
			Response:     &mockResponseRepo{st: forms},
			Allocation:   allocation,
			Handout:      handouts,
			Todo:         todos,
			Notification: notices,
		},
	}
}

// ── Fixture helpers ──

func strPtr(s string) *string { return &s }

func (ts *testStore) addFaculty(email, name, psrn string) {
	ts.users.users[email] = &model.User{
		Email: email, Name: name, Type: model.UserTypeFaculty,
		PSRN: strPtr(psrn), Roles: model.StringList{"faculty"},
	}
}

func (ts *testStore) addPhD(email, name, erpID, phdType string) {
	ts.users.users[email] = &model.User{
		Email: email, Name: name, Type: model.UserTypePhD,
		PhDType: strPtr(phdType), ERPID: strPtr(erpID),
		Roles: model.StringList{"phd"},
	}
}

func (ts *testStore) addCourse(code string, lectureUnits, practicalUnits int, marked bool) *model.Course {
	c := &model.Course{
		Code: code, Name: "Course " + code,
		LectureUnits: lectureUnits, PracticalUnits: practicalUnits,
		TotalUnits: lectureUnits + practicalUnits,
		OfferedAs:  model.OfferedAsCDC, OfferedTo: model.OfferedToFD,
		MarkedForAllocation: marked,
	}
	ts.courses.courses[code] = c
	return c
}

func (ts *testStore) addSemester(id string, year, semType int, status string) *model.Semester {
	s := &model.Semester{
		SemesterID:       id,
		AcademicYear:     year,
		SemesterType:     semType,
		StartDate:        time.Date(year, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(year, 12, 15, 0, 0, 0, 0, time.UTC),
		AllocationStatus: status,
	}
	ts.semesters.semesters[id] = s
	return s
}
