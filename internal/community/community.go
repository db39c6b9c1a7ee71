package community

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"attendanceio/internal/apperr"
	"attendanceio/internal/store"
)

const (
	maxTitle       = 100
	maxDescription = 500
)

// FeedbackType is stored upper case.
type FeedbackType string

const (
	FeedbackBug        FeedbackType = "BUG"
	FeedbackGeneral    FeedbackType = "FEEDBACK"
	FeedbackSuggestion FeedbackType = "SUGGESTION"
)

// ContributorType is the kind of help a contributor gave.
type ContributorType string

const (
	ContributorIdea   ContributorType = "IDEA"
	ContributorTester ContributorType = "TESTER"
)

type FeedbackRequest struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Feedback struct {
	ID          int64
	StudentID   int64
	Type        FeedbackType
	Title       string
	Description string
}

type Contributor struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	TypeOfHelp string `json:"typeOfHelp"`
}

// Store persists feedback and lists contributors.
type Store interface {
	InsertFeedback(ctx context.Context, f Feedback) (int64, error)
	Contributors(ctx context.Context, typ *ContributorType) ([]Contributor, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// SubmitFeedback validates and stores a message from a student.
func (s *Service) SubmitFeedback(ctx context.Context, studentID int64, req FeedbackRequest) (int64, error) {
	title := strings.TrimSpace(req.Title)
	desc := strings.TrimSpace(req.Description)
	if title == "" || desc == "" {
		return 0, apperr.Invalid("Title and description are required")
	}
	if utf8.RuneCountInString(title) > maxTitle {
		return 0, apperr.Invalid("Title must be %d characters or less", maxTitle)
	}
	if utf8.RuneCountInString(desc) > maxDescription {
		return 0, apperr.Invalid("Description must be %d characters or less", maxDescription)
	}
	typ := FeedbackType(strings.ToUpper(strings.TrimSpace(req.Type)))
	switch typ {
	case FeedbackBug, FeedbackGeneral, FeedbackSuggestion:
	default:
		return 0, apperr.Invalid("Invalid feedback type. Must be one of: bug, feedback, suggestion")
	}
	return s.store.InsertFeedback(ctx, Feedback{StudentID: studentID, Type: typ, Title: title, Description: desc})
}

// Contributors lists everyone, or only one kind when typ is set.
func (s *Service) Contributors(ctx context.Context, typ string) ([]Contributor, error) {
	var filter *ContributorType
	if typ = strings.TrimSpace(typ); typ != "" {
		ct := ContributorType(strings.ToUpper(typ))
		if ct != ContributorIdea && ct != ContributorTester {
			return nil, apperr.Invalid("Invalid contributor type. Must be one of: idea, tester")
		}
		filter = &ct
	}
	out, err := s.store.Contributors(ctx, filter)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Contributor{}
	}
	return out, nil
}

// Repository is the Postgres Store.
type Repository struct {
	db store.DBTX
}

func NewRepository(db store.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) InsertFeedback(ctx context.Context, f Feedback) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO feedback (student_id, type, title, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, f.StudentID, string(f.Type), f.Title, f.Description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert feedback: %w", err)
	}
	return id, nil
}

func (r *Repository) Contributors(ctx context.Context, typ *ContributorType) ([]Contributor, error) {
	var filter *string
	if typ != nil {
		v := string(*typ)
		filter = &v
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type_of_help
		FROM contributors
		WHERE $1::text IS NULL OR type_of_help = $1
		ORDER BY name
	`, filter)
	if err != nil {
		return nil, fmt.Errorf("list contributors: %w", err)
	}
	defer rows.Close()
	var out []Contributor
	for rows.Next() {
		var c Contributor
		if err := rows.Scan(&c.ID, &c.Name, &c.TypeOfHelp); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
