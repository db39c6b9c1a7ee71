package attendance

import (
	"context"
	"strconv"
	"strings"
	"time"

	"attendanceio/internal/academic"
	"attendanceio/internal/apperr"
	"attendanceio/internal/metrics"
	"attendanceio/internal/student"
)

// Store is the persistence the service needs.
type Store interface {
	Enrollments(ctx context.Context, studentID int64) ([]Enrollment, error)
	IsEnrolled(ctx context.Context, studentID, subjectID int64) (bool, error)
	Baselines(ctx context.Context, studentID int64) ([]Baseline, error)
	ReplaceBaseline(ctx context.Context, b Baseline) (Baseline, error)
	Records(ctx context.Context, studentID int64) ([]Record, error)
	Upsert(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, studentID, id int64) (bool, error)
	TimetableDays(ctx context.Context, studentID int64, semesterID *int64) (map[int64][]time.Weekday, error)
}

// Catalog resolves subjects and the active semester.
type Catalog interface {
	SubjectByID(ctx context.Context, id int64) (academic.Subject, error)
	CurrentSemester(ctx context.Context) (academic.Semester, error)
}

// Options tune projections. Zero ClassesStart disables timetable projection.
type Options struct {
	ClassesStart           time.Time
	ClassesEnd             time.Time
	DefaultMinimumCriteria int
	Now                    func() time.Time
}

// Service computes attendance figures and records marks.
type Service struct {
	store   Store
	catalog Catalog
	opts    Options
}

// NewService creates a service backed by a store.
func NewService(store Store, catalog Catalog, opts Options) *Service {
	if opts.DefaultMinimumCriteria <= 0 {
		opts.DefaultMinimumCriteria = 75
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, catalog: catalog, opts: opts}
}

// history is one student's raw attendance data grouped by subject.
type history struct {
	enrollments []Enrollment
	baselines   map[int64][]Baseline
	records     map[int64][]Record
	all         []Record
}

func (s *Service) loadHistory(ctx context.Context, studentID int64) (history, error) {
	var h history
	var err error
	if h.enrollments, err = s.store.Enrollments(ctx, studentID); err != nil {
		return h, err
	}
	baselines, err := s.store.Baselines(ctx, studentID)
	if err != nil {
		return h, err
	}
	if h.all, err = s.store.Records(ctx, studentID); err != nil {
		return h, err
	}
	h.baselines = make(map[int64][]Baseline)
	for _, b := range baselines {
		h.baselines[b.SubjectID] = append(h.baselines[b.SubjectID], b)
	}
	h.records = make(map[int64][]Record)
	for _, r := range h.all {
		h.records[r.SubjectID] = append(h.records[r.SubjectID], r)
	}
	return h, nil
}

// totalUntil is the class count up to end: the timetable projection when one
// exists, else the merged total, minus cancelled lectures, floored at zero.
func (s *Service) totalUntil(end time.Time, days []time.Weekday, counts Counts, records []Record) (total int, projected bool) {
	cancelled := CountCancelledUntil(records, end)
	if proj, ok := ProjectClasses(s.opts.ClassesStart, end, days); ok {
		return ExpectedTotal(proj, cancelled), true
	}
	return ExpectedTotal(counts.Total, cancelled), false
}

func (s *Service) minimum(crit *int) int {
	if crit != nil {
		return *crit
	}
	return s.opts.DefaultMinimumCriteria
}

func (s *Service) today() time.Time {
	return dateOf(s.opts.Now())
}

// Overview returns per-subject statistics as of date (today when blank) and the
// records marked on that date.
func (s *Service) Overview(ctx context.Context, studentID int64, date string) (Overview, error) {
	target := s.today()
	if strings.TrimSpace(date) != "" {
		d, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return Overview{}, apperr.Invalid("invalid date format: %s. Expected format: yyyy-MM-dd", date)
		}
		target = d
	}

	h, err := s.loadHistory(ctx, studentID)
	if err != nil {
		return Overview{}, err
	}

	days := map[int64][]time.Weekday{}
	sem, err := s.catalog.CurrentSemester(ctx)
	switch {
	case err == nil:
		if days, err = s.store.TimetableDays(ctx, studentID, &sem.ID); err != nil {
			return Overview{}, err
		}
	case apperr.KindOf(err) != apperr.KindNotFound:
		return Overview{}, err
	}

	end := target
	if !s.opts.ClassesEnd.IsZero() {
		end = s.opts.ClassesEnd
	}

	out := Overview{SubjectStats: []SubjectStats{}, TodayAttendance: []DayRecord{}}
	for _, e := range h.enrollments {
		id := e.Subject.ID
		counts := Merge(h.baselines[id], h.records[id])
		total, _ := s.totalUntil(target, days[id], counts, h.records[id])
		untilEnd, projected := s.totalUntil(end, days[id], counts, h.records[id])
		if !projected {
			untilEnd = total
		}
		untilEnd = max(total, untilEnd)
		minReq := s.minimum(e.MinimumCriteria)

		out.SubjectStats = append(out.SubjectStats, SubjectStats{
			SubjectID:         strconv.FormatInt(id, 10),
			Present:           counts.Present,
			Absent:            counts.Absent,
			Leave:             counts.Leave,
			Total:             total,
			TotalUntilEndDate: untilEnd,
			Percentage:        Round2(Percentage(counts.Present, total)),
			ClassesNeeded:     ClassesNeeded(counts.Present, total, minReq),
			BunkableClasses:   BunkableClasses(counts.Present, total, untilEnd, minReq),
			MinimumCriteria:   minReq,
		})
	}
	for _, r := range h.all {
		if dateOf(r.LectureDate).Equal(target) {
			out.TodayAttendance = append(out.TodayAttendance, DayRecord{
				AttendanceID: r.ID,
				SubjectID:    strconv.FormatInt(r.SubjectID, 10),
				LectureDate:  r.LectureDate.Format(time.DateOnly),
				Status:       r.Status.Lower(),
			})
		}
	}
	return out, nil
}

// Mark upserts the caller's attendance for a subject and date.
func (s *Service) Mark(ctx context.Context, studentID int64, req MarkRequest) (MarkResult, error) {
	subjectID, err := parseID(req.SubjectID)
	if err != nil {
		return MarkResult{}, err
	}
	date, err := time.Parse(time.DateOnly, req.LectureDate)
	if err != nil {
		return MarkResult{}, apperr.Invalid("invalid date format: %s. Expected format: yyyy-MM-dd", req.LectureDate)
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		return MarkResult{}, err
	}
	if _, err := s.catalog.SubjectByID(ctx, subjectID); err != nil {
		return MarkResult{}, err
	}

	rec, err := s.store.Upsert(ctx, Record{
		StudentID:   studentID,
		SubjectID:   subjectID,
		LectureDate: date,
		Status:      status,
		Source:      SourceStudent,
	})
	if err != nil {
		return MarkResult{}, err
	}
	metrics.AttendanceMarks.WithLabelValues(status.Lower()).Inc()
	return MarkResult{
		Message:      "Attendance marked successfully",
		AttendanceID: rec.ID,
		SubjectID:    req.SubjectID,
		LectureDate:  req.LectureDate,
		Status:       status.Lower(),
	}, nil
}

// Delete removes one of the caller's own records.
func (s *Service) Delete(ctx context.Context, studentID, attendanceID int64) error {
	ok, err := s.store.Delete(ctx, studentID, attendanceID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("attendance record not found")
	}
	return nil
}

// SaveBaseline replaces the institute snapshot for an enrolled subject.
func (s *Service) SaveBaseline(ctx context.Context, studentID int64, req BaselineRequest) (Baseline, error) {
	subjectID, err := parseID(req.SubjectID)
	if err != nil {
		return Baseline{}, err
	}
	enrolled, err := s.store.IsEnrolled(ctx, studentID, subjectID)
	if err != nil {
		return Baseline{}, err
	}
	if !enrolled {
		return Baseline{}, apperr.Invalid("subject not found in enrolled subjects")
	}
	cutoff, err := time.Parse(time.DateOnly, req.CutoffDate)
	if err != nil {
		return Baseline{}, apperr.Invalid("invalid date format. Use yyyy-MM-dd format")
	}
	switch {
	case req.TotalClasses < 0:
		return Baseline{}, apperr.Invalid("total classes cannot be negative")
	case req.PresentClasses < 0:
		return Baseline{}, apperr.Invalid("present classes cannot be negative")
	case req.PresentClasses > req.TotalClasses:
		return Baseline{}, apperr.Invalid("present classes cannot exceed total classes")
	}
	return s.store.ReplaceBaseline(ctx, Baseline{
		StudentID:      studentID,
		SubjectID:      subjectID,
		CutoffDate:     cutoff,
		TotalClasses:   req.TotalClasses,
		PresentClasses: req.PresentClasses,
	})
}

// Standing is a student's merged position in one subject.
type Standing struct {
	Present         int
	Absent          int
	MinimumCriteria int
	Percentage      float64
}

// Critical reports attendance below the minimum over attended and missed lectures.
func (st Standing) Critical() bool {
	if st.Present+st.Absent == 0 {
		return false
	}
	return st.Percentage < float64(st.MinimumCriteria)
}

// Standing merges one subject for the reminder job.
func (s *Service) Standing(ctx context.Context, studentID, subjectID int64) (Standing, error) {
	h, err := s.loadHistory(ctx, studentID)
	if err != nil {
		return Standing{}, err
	}
	for _, e := range h.enrollments {
		if e.Subject.ID != subjectID {
			continue
		}
		c := Merge(h.baselines[subjectID], h.records[subjectID])
		return Standing{
			Present:         c.Present,
			Absent:          c.Absent,
			MinimumCriteria: s.minimum(e.MinimumCriteria),
			Percentage:      Percentage(c.Present, c.Present+c.Absent),
		}, nil
	}
	return Standing{}, apperr.NotFound("subject %d not enrolled", subjectID)
}

// SubjectReport is one subject row in a student report.
type SubjectReport struct {
	SubjectID   string `json:"subjectId"`
	SubjectCode string `json:"subjectCode"`
	SubjectName string `json:"subjectName"`
	Color       string `json:"color"`
	Present     int    `json:"present"`
	Absent      int    `json:"absent"`
	Leave       int    `json:"leave"`
	Total       int    `json:"total"`
}

// SemesterRef identifies a semester in reports.
type SemesterRef struct {
	ID   string `json:"id"`
	Year int    `json:"year"`
	Type string `json:"type"`
}

// SemesterReport groups subject rows.
type SemesterReport struct {
	Semester SemesterRef     `json:"semester"`
	Subjects []SubjectReport `json:"subjects"`
}

// StudentReport is the searchable attendance summary of a student.
type StudentReport struct {
	StudentID  string           `json:"studentId"`
	Name       string           `json:"studentName"`
	RollNumber string           `json:"rollNumber"`
	PictureURL string           `json:"studentPictureUrl,omitempty"`
	Semesters  []SemesterReport `json:"semesters"`
}

// Report summarises every enrolled subject grouped by semester with totals up to today.
func (s *Service) Report(ctx context.Context, st student.Student) (StudentReport, error) {
	h, err := s.loadHistory(ctx, st.ID)
	if err != nil {
		return StudentReport{}, err
	}
	days, err := s.store.TimetableDays(ctx, st.ID, nil)
	if err != nil {
		return StudentReport{}, err
	}

	today := s.today()
	out := StudentReport{
		StudentID:  strconv.FormatInt(st.ID, 10),
		Name:       st.Name,
		RollNumber: st.SID,
		PictureURL: st.PictureURL,
		Semesters:  []SemesterReport{},
	}
	index := map[int64]int{}
	// enrollments arrive ordered newest semester first
	for _, e := range h.enrollments {
		id := e.Subject.ID
		counts := Merge(h.baselines[id], h.records[id])
		total, _ := s.totalUntil(today, days[id], counts, h.records[id])

		i, ok := index[e.Semester.ID]
		if !ok {
			i = len(out.Semesters)
			index[e.Semester.ID] = i
			out.Semesters = append(out.Semesters, SemesterReport{
				Semester: SemesterRef{ID: strconv.FormatInt(e.Semester.ID, 10), Year: e.Semester.Year, Type: e.Semester.Type},
			})
		}
		out.Semesters[i].Subjects = append(out.Semesters[i].Subjects, SubjectReport{
			SubjectID:   strconv.FormatInt(id, 10),
			SubjectCode: e.Subject.Code,
			SubjectName: e.Subject.Name,
			Color:       e.Subject.Color,
			Present:     counts.Present,
			Absent:      counts.Absent,
			Leave:       counts.Leave,
			Total:       total,
		})
	}
	return out, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, apperr.Invalid("invalid subject ID: %s", raw)
	}
	return id, nil
}
