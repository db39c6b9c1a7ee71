package analytics

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"attendanceio/internal/academic"
)

// recentSemesters bounds the per-semester series on the overview.
const recentSemesters = 5

// Store reads precomputed percentages.
type Store interface {
	Percentages(ctx context.Context, semesterID *int64) ([]float64, error)
	StudentCount(ctx context.Context, semesterID *int64) (int, error)
}

// Catalog lists semesters and counts subjects.
type Catalog interface {
	Semesters(ctx context.Context) ([]academic.Semester, error)
	SemesterByID(ctx context.Context, id int64) (academic.Semester, error)
	CountSubjects(ctx context.Context, semesterID *int64) (int, error)
}

// Report is the distribution summary with headcounts.
type Report struct {
	TotalStudents int `json:"totalStudents"`
	TotalSubjects int `json:"totalSubjects"`
	Summary
}

// SemesterInfo labels a semester for the dashboard.
type SemesterInfo struct {
	ID    int64  `json:"id"`
	Year  int    `json:"year"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

func infoOf(s academic.Semester) SemesterInfo {
	return SemesterInfo{ID: s.ID, Year: s.Year, Type: academic.TypeName(s.Type), Label: s.Label()}
}

// SemesterPoint is one bar of the semester-wise chart.
type SemesterPoint struct {
	Semester   string  `json:"semester"`
	Percentage float64 `json:"percentage"`
	Students   int     `json:"students"`
	Color      string  `json:"color"`
}

// Overview is the admin dashboard payload.
type Overview struct {
	Semesters    []SemesterInfo  `json:"semesters"`
	Overall      Report          `json:"overall"`
	SemesterWise []SemesterPoint `json:"semesterWise"`
}

// SemesterReport is the analytics for one semester.
type SemesterReport struct {
	Semester  SemesterInfo `json:"semester"`
	Analytics Report       `json:"analytics"`
}

// Service builds attendance analytics across students.
type Service struct {
	store   Store
	catalog Catalog
}

// NewService creates an analytics service.
func NewService(store Store, catalog Catalog) *Service {
	return &Service{store: store, catalog: catalog}
}

// Semesters lists all semesters, most recent first.
func (s *Service) Semesters(ctx context.Context) ([]SemesterInfo, error) {
	sems, err := s.catalog.Semesters(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SemesterInfo, 0, len(sems))
	for _, sem := range sems {
		out = append(out, infoOf(sem))
	}
	return out, nil
}

// Report aggregates one semester, or every semester when semesterID is nil.
func (s *Service) Report(ctx context.Context, semesterID *int64) (Report, error) {
	percentages, err := s.store.Percentages(ctx, semesterID)
	if err != nil {
		return Report{}, err
	}
	students, err := s.store.StudentCount(ctx, semesterID)
	if err != nil {
		return Report{}, err
	}
	subjects, err := s.catalog.CountSubjects(ctx, semesterID)
	if err != nil {
		return Report{}, err
	}
	return Report{TotalStudents: students, TotalSubjects: subjects, Summary: Aggregate(percentages)}, nil
}

// Overview returns the overall report plus a series for the most recent
// semesters. A semester that fails to aggregate is shown muted with zeros.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	sems, err := s.catalog.Semesters(ctx)
	if err != nil {
		return Overview{}, err
	}
	overall, err := s.Report(ctx, nil)
	if err != nil {
		return Overview{}, err
	}

	recent := sems
	if len(recent) > recentSemesters {
		recent = recent[:recentSemesters]
	}
	points := make([]SemesterPoint, len(recent))
	var g errgroup.Group
	for i, sem := range recent {
		i, sem := i, sem
		g.Go(func() error {
			id := sem.ID
			rep, err := s.Report(ctx, &id)
			if err != nil {
				log.Printf("analytics: semester %d: %v", sem.ID, err)
				points[i] = SemesterPoint{Semester: sem.Label(), Color: colorMuted}
				return nil
			}
			points[i] = SemesterPoint{
				Semester:   sem.Label(),
				Percentage: rep.Average,
				Students:   rep.TotalStudents,
				Color:      BandColor(rep.Average),
			}
			return nil
		})
	}
	_ = g.Wait()

	infos := make([]SemesterInfo, 0, len(sems))
	for _, sem := range sems {
		infos = append(infos, infoOf(sem))
	}
	return Overview{Semesters: infos, Overall: overall, SemesterWise: points}, nil
}

// Semester returns the report for one semester.
func (s *Service) Semester(ctx context.Context, id int64) (SemesterReport, error) {
	sem, err := s.catalog.SemesterByID(ctx, id)
	if err != nil {
		return SemesterReport{}, err
	}
	rep, err := s.Report(ctx, &sem.ID)
	if err != nil {
		return SemesterReport{}, err
	}
	return SemesterReport{Semester: infoOf(sem), Analytics: rep}, nil
}
