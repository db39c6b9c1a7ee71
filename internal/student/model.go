package student

import (
	"strings"
	"time"
)

// Student is a registered user of the app.
type Student struct {
	ID                 int64     `json:"id"`
	SID                string    `json:"sid"`
	Name               string    `json:"name"`
	Phone              string    `json:"phone,omitempty"`
	Email              string    `json:"email"`
	GoogleID           string    `json:"-"`
	PictureURL         string    `json:"pictureUrl,omitempty"`
	SleepDurationHours int       `json:"sleepDurationHours"`
	FCMToken           *string   `json:"-"`
	CreatedAt          time.Time `json:"createdAt"`
}

// GoogleProfile is the identity returned by the OAuth provider.
type GoogleProfile struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// SearchResult is the public projection used by student search.
type SearchResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
	Email      string `json:"email,omitempty"`
	PictureURL string `json:"pictureUrl,omitempty"`
}

// SIDFromEmail derives the school id from the mailbox name.
func SIDFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
