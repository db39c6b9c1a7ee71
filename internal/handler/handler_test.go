package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendanceio/internal/academic"
	"attendanceio/internal/apperr"
	"attendanceio/internal/attendance"
	"attendanceio/internal/auth"
	"attendanceio/internal/enrollment"
	"attendanceio/internal/student"
	"attendanceio/internal/timetable"
)

const email = "ab123@dau.ac.in"

type students map[string]student.Student

func (s students) ByEmail(_ context.Context, e string) (student.Student, error) {
	if st, ok := s[e]; ok {
		return st, nil
	}
	return student.Student{}, apperr.NotFound("Student not found")
}

func (s students) LoginWithGoogle(_ context.Context, p student.GoogleProfile) (student.Student, error) {
	if !strings.HasSuffix(p.Email, "@dau.ac.in") {
		return student.Student{}, apperr.Invalid("only @dau.ac.in email addresses are allowed")
	}
	return s[p.Email], nil
}

type testServer struct {
	engine *gin.Engine
	tokens *auth.Tokens
	token  string
}

func newServer(t *testing.T, groups ...Routes) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tk := auth.NewTokens("attendanceio", "secret", time.Hour, 24*time.Hour)
	pair, err := tk.Issue(email)
	require.NoError(t, err)

	r := gin.New()
	Register(r, gin.HandlersChain{auth.StudentAuth(tk, students{email: {ID: 9, Email: email, Name: "Asha"}})}, groups...)
	return &testServer{engine: r, tokens: tk, token: pair.AccessToken}
}

func (s *testServer) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type fakeEnrollments struct {
	saved enrollment.SaveResult
	err   error
}

func (f *fakeEnrollments) Enrolled(context.Context, int64) ([]enrollment.EnrolledSubject, error) {
	return []enrollment.EnrolledSubject{{SubjectID: "1", SubjectCode: "MA101"}}, nil
}

func (f *fakeEnrollments) Save(_ context.Context, _ int64, req enrollment.SaveRequest) (enrollment.SaveResult, error) {
	return f.saved, f.err
}

func (f *fakeEnrollments) Preview(context.Context, int64, enrollment.SaveRequest) (enrollment.Preview, error) {
	return enrollment.Preview{Message: "No timetable conflicts detected"}, nil
}

func (f *fakeEnrollments) UpdateMinimumCriteria(context.Context, int64, enrollment.CriteriaRequest) error {
	return f.err
}

type fakeBaselines struct{}

func (fakeBaselines) SaveBaseline(_ context.Context, studentID int64, req attendance.BaselineRequest) (attendance.Baseline, error) {
	return attendance.Baseline{StudentID: studentID, SubjectID: 1, CutoffDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), TotalClasses: req.TotalClasses, PresentClasses: req.PresentClasses}, nil
}

func TestEnrollmentSaveStatus(t *testing.T) {
	f := &fakeEnrollments{}
	s := newServer(t, NewEnrollmentHandler(f, fakeBaselines{}))

	f.saved = enrollment.SaveResult{SubjectIDs: []string{"1"}, Count: 1, SyncResult: timetable.SyncResult{Success: true, Message: "ok"}}
	w := s.do(http.MethodPost, "/api/student/enrollment/subjects", `{"subjectIds":["1"]}`, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	f.saved.HasConflicts = true
	w = s.do(http.MethodPost, "/api/student/enrollment/subjects", `{"subjectIds":["1"]}`, true)
	assert.Equal(t, StatusEnrolledWithConflicts, w.Code)
	assert.Equal(t, true, decode(t, w)["hasConflicts"])

	f.err = apperr.Invalid("Maximum 7 subjects allowed. You selected 8 subjects.")
	w = s.do(http.MethodPost, "/api/student/enrollment/subjects", `{"subjectIds":["1"]}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Maximum 7 subjects allowed. You selected 8 subjects.", decode(t, w)["error"])

	w = s.do(http.MethodPost, "/api/student/enrollment/subjects", `{"subjectIds":["1"]}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEnrollmentBaseline(t *testing.T) {
	s := newServer(t, NewEnrollmentHandler(&fakeEnrollments{}, fakeBaselines{}))
	w := s.do(http.MethodPost, "/api/student/enrollment/baseline",
		`{"subjectId":"1","cutoffDate":"2024-02-01","totalClasses":20,"presentClasses":15}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "2024-02-01", body["cutoffDate"])
	assert.Equal(t, "1", body["subjectId"])
	assert.Equal(t, float64(15), body["presentClasses"])

	w = s.do(http.MethodPost, "/api/student/enrollment/baseline", `{"totalClasses":20}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakeAttendance struct{ deleted []int64 }

func (f *fakeAttendance) Overview(_ context.Context, _ int64, date string) (attendance.Overview, error) {
	if date == "bad" {
		return attendance.Overview{}, apperr.Invalid("invalid date format: bad. Expected format: yyyy-MM-dd")
	}
	return attendance.Overview{SubjectStats: []attendance.SubjectStats{}, TodayAttendance: []attendance.DayRecord{}}, nil
}

func (f *fakeAttendance) Mark(_ context.Context, _ int64, req attendance.MarkRequest) (attendance.MarkResult, error) {
	return attendance.MarkResult{Message: "Attendance marked successfully", SubjectID: req.SubjectID, Status: req.Status}, nil
}

func (f *fakeAttendance) Delete(_ context.Context, _ int64, id int64) error {
	if id != 5 {
		return apperr.NotFound("Attendance record not found")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func TestAttendanceRoutes(t *testing.T) {
	f := &fakeAttendance{}
	s := newServer(t, NewAttendanceHandler(f))

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/attendance?date=2024-03-01", "", true).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/attendance?date=bad", "", true).Code)

	w := s.do(http.MethodPost, "/api/attendance", `{"subjectId":"1","lectureDate":"2024-03-01","status":"present"}`, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/attendance", `{"subjectId":"1"}`, true).Code)

	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/attendance/5", "", true).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/attendance/6", "", true).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/api/attendance/abc", "", true).Code)
	assert.Equal(t, []int64{5}, f.deleted)
}

type fakeTimetables struct{ err error }

func (f fakeTimetables) Get(context.Context, int64) ([]timetable.SlotView, error) {
	return []timetable.SlotView{}, f.err
}

func (f fakeTimetables) Save(_ context.Context, _ int64, req timetable.SaveRequest) (int, error) {
	return len(req.Slots), f.err
}

func TestTimetableHidesInternalErrors(t *testing.T) {
	s := newServer(t, NewTimetableHandler(fakeTimetables{}))
	w := s.do(http.MethodPut, "/api/timetable", `{"slots":[{"day":0,"timeSlot":1,"subjectId":"3"}]}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	s = newServer(t, NewTimetableHandler(fakeTimetables{err: errors.New("pq: connection reset")}))
	w = s.do(http.MethodGet, "/api/timetable", "", true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w)["error"])
}

type fakeCatalog struct {
	noSemester bool
	asked      []int64
}

func (f *fakeCatalog) CurrentSemester(context.Context) (academic.Semester, error) {
	if f.noSemester {
		return academic.Semester{}, apperr.NotFound("no active semester")
	}
	return academic.Semester{ID: 3, Year: 2024, Type: "WINTER", IsActive: true}, nil
}

func (f *fakeCatalog) SubjectsBySemester(context.Context, int64) ([]academic.Subject, error) {
	return []academic.Subject{{ID: 1, Code: "MA101", Name: "Maths"}}, nil
}

func (f *fakeCatalog) SchedulesForSubjects(_ context.Context, ids []int64) ([]academic.ScheduleSlot, error) {
	f.asked = ids
	return []academic.ScheduleSlot{{
		Subject: academic.Subject{ID: 1, Code: "MA101", Name: "Maths"},
		Day:     academic.WeekDay{ID: 1, Name: "MONDAY"},
		Slot:    academic.TimeSlot{ID: 2, Start: "09:00", End: "10:00"},
	}}, nil
}

func TestReferenceRoutes(t *testing.T) {
	cat := &fakeCatalog{}
	s := newServer(t, NewReferenceHandler(cat, time.Time{}, false))

	w := s.do(http.MethodGet, "/api/semester/current", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "WINTER", decode(t, w)["type"])

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/subjects/current", "", false).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/config/classes-start-date", "", true).Code)

	w = s.do(http.MethodGet, "/api/subjects/schedules?subjectIds=1,2", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{1, 2}, cat.asked)
	assert.Contains(t, w.Body.String(), `"slotStartTime":"09:00"`)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/subjects/schedules?subjectIds=x", "", true).Code)

	cat.noSemester = true
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/semester/current", "", false).Code)
	w = s.do(http.MethodGet, "/api/subjects/current", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	start := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	s = newServer(t, NewReferenceHandler(cat, start, true))
	w = s.do(http.MethodGet, "/api/config/classes-start-date", "", true)
	assert.JSONEq(t, `{"startDate":"2024-01-08"}`, w.Body.String())
}

type fakeOAuth struct{ profile student.GoogleProfile }

func (f fakeOAuth) AuthCodeURL(state string) string {
	return "https://accounts.example/auth?state=" + state
}

func (f fakeOAuth) Profile(context.Context, string) (student.GoogleProfile, error) {
	return f.profile, nil
}

func authServer(t *testing.T, profile student.GoogleProfile) (*testServer, auth.CodeStore) {
	t.Helper()
	codes := auth.NewMemoryCodes(auth.CodeTTL)
	gin.SetMode(gin.TestMode)
	tk := auth.NewTokens("attendanceio", "secret", time.Hour, 24*time.Hour)
	lookup := students{email: {ID: 9, Email: email}}
	h := NewAuthHandler(fakeOAuth{profile: profile}, lookup, codes, tk, AuthOptions{
		FrontendURL:  "http://localhost:5173",
		MobileScheme: "com.attendanceio.app",
		MobileHost:   "auth",
	})
	r := gin.New()
	Register(r, gin.HandlersChain{auth.StudentAuth(tk, lookup)}, h)
	return &testServer{engine: r, tokens: tk}, codes
}

func cookies(w *httptest.ResponseRecorder) map[string]string {
	out := map[string]string{}
	for _, c := range w.Result().Cookies() {
		out[c.Name] = c.Value
	}
	return out
}

func callback(s *testServer, state string, jar map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=c1&state="+state, nil)
	for k, v := range jar {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestWebLogin(t *testing.T) {
	s, _ := authServer(t, student.GoogleProfile{Email: email, Name: "Asha"})

	w := s.do(http.MethodGet, "/api/auth/google/start", "", false)
	require.Equal(t, http.StatusFound, w.Code)
	state := cookies(w)[stateCookie]
	require.NotEmpty(t, state)
	assert.Contains(t, w.Header().Get("Location"), "state="+state)

	w = callback(s, state, map[string]string{stateCookie: state})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://localhost:5173/dashboard", w.Header().Get("Location"))
	session := cookies(w)[auth.SessionCookie]
	claims, err := s.tokens.ParseAccess(session)
	require.NoError(t, err)
	assert.Equal(t, email, claims.Email)

	w = callback(s, "forged", map[string]string{stateCookie: state})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "http://localhost:5173/login?error="))
}

func TestWebLoginRejectsForeignDomain(t *testing.T) {
	s, _ := authServer(t, student.GoogleProfile{Email: "someone@gmail.com"})
	w := callback(s, "st", map[string]string{stateCookie: "st"})
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "only @dau.ac.in email addresses are allowed", loc.Query().Get("error"))
}

func TestMobileLoginAndExchange(t *testing.T) {
	s, _ := authServer(t, student.GoogleProfile{Email: email})

	w := s.do(http.MethodGet, "/api/auth/mobile/google/start?redirect_uri="+url.QueryEscape("https://evil.example/auth"), "", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/auth/mobile/google/start?redirect_uri="+url.QueryEscape("com.attendanceio.app://auth/done"), "", false)
	require.Equal(t, http.StatusFound, w.Code)
	jar := cookies(w)
	redirect, err := url.QueryUnescape(jar[mobileCookie])
	require.NoError(t, err)
	require.Equal(t, "com.attendanceio.app://auth/done", redirect)

	w = callback(s, jar[stateCookie], jar)
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "com.attendanceio.app", loc.Scheme)
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)

	w = s.do(http.MethodPost, "/api/auth/mobile/exchange", `{"code":"`+code+`"}`, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, cookies(w)[auth.SessionCookie])
	var body struct {
		Tokens auth.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	w = s.do(http.MethodPost, "/api/auth/mobile/exchange", `{"code":"`+code+`"}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "codes are single use")

	w = s.do(http.MethodPost, "/api/auth/refresh", `{"refreshToken":"`+body.Tokens.RefreshToken+`"}`, false)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodPost, "/api/auth/refresh", `{"refreshToken":"`+body.Tokens.AccessToken+`"}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
