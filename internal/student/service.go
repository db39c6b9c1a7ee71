package student

import (
	"context"
	"strconv"
	"strings"

	"attendanceio/internal/apperr"
)

const (
	searchLimit      = 10
	minSleepDuration = 1
	maxSleepDuration = 16
)

// Store is the persistence the service needs.
type Store interface {
	ByEmail(ctx context.Context, email string) (Student, error)
	ByID(ctx context.Context, id int64) (Student, error)
	Upsert(ctx context.Context, s Student) (Student, error)
	SetFCMToken(ctx context.Context, id int64, token *string) error
	SetSleepDuration(ctx context.Context, id int64, hours int) error
	SearchByName(ctx context.Context, query string, limit int) ([]Student, error)
	SearchBySID(ctx context.Context, query string, limit int) ([]Student, error)
	WithFCMToken(ctx context.Context) ([]Student, error)
}

// Service holds student profile rules.
type Service struct {
	store         Store
	allowedDomain string
}

// NewService builds a service. An empty allowedDomain accepts any email.
func NewService(store Store, allowedDomain string) *Service {
	return &Service{store: store, allowedDomain: strings.ToLower(strings.TrimPrefix(allowedDomain, "@"))}
}

func (s *Service) ByEmail(ctx context.Context, email string) (Student, error) {
	return s.store.ByEmail(ctx, email)
}

func (s *Service) ByID(ctx context.Context, id int64) (Student, error) {
	return s.store.ByID(ctx, id)
}

// AllowedEmail reports whether the address belongs to the institute domain.
func (s *Service) AllowedEmail(email string) bool {
	if s.allowedDomain == "" {
		return strings.Contains(email, "@")
	}
	return strings.HasSuffix(strings.ToLower(email), "@"+s.allowedDomain)
}

// LoginWithGoogle finds or creates the student for a verified Google identity.
func (s *Service) LoginWithGoogle(ctx context.Context, p GoogleProfile) (Student, error) {
	email := strings.TrimSpace(p.Email)
	if !s.AllowedEmail(email) {
		return Student{}, apperr.Invalid("only @%s email addresses are allowed", s.allowedDomain)
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "Unknown"
	}
	return s.store.Upsert(ctx, Student{
		SID:        SIDFromEmail(email),
		Name:       name,
		Email:      email,
		GoogleID:   p.Subject,
		PictureURL: p.Picture,
	})
}

// UpdateFCMToken stores the device token; blank clears it.
func (s *Service) UpdateFCMToken(ctx context.Context, id int64, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.store.SetFCMToken(ctx, id, nil)
	}
	return s.store.SetFCMToken(ctx, id, &token)
}

// UpdateSleepDuration validates and stores the preferred sleep length in hours.
func (s *Service) UpdateSleepDuration(ctx context.Context, id int64, hours int) error {
	if hours < minSleepDuration || hours > maxSleepDuration {
		return apperr.Invalid("sleep duration must be between %d and %d hours", minSleepDuration, maxSleepDuration)
	}
	return s.store.SetSleepDuration(ctx, id, hours)
}

// Search matches students by name or school id, deduplicated and capped.
func (s *Service) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}
	byName, err := s.store.SearchByName(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}
	bySID, err := s.store.SearchBySID(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(byName)+len(bySID))
	out := make([]SearchResult, 0, searchLimit)
	for _, st := range append(byName, bySID...) {
		if seen[st.ID] || len(out) == searchLimit {
			continue
		}
		seen[st.ID] = true
		out = append(out, SearchResult{
			ID:         strconv.FormatInt(st.ID, 10),
			Name:       st.Name,
			RollNumber: st.SID,
			Email:      st.Email,
			PictureURL: st.PictureURL,
		})
	}
	return out, nil
}

// WithFCMToken lists reminder recipients.
func (s *Service) WithFCMToken(ctx context.Context) ([]Student, error) {
	return s.store.WithFCMToken(ctx)
}
