// Package model defines shared data structures for the SKOUT client and the
// search API.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultLogoURL is substituted when the search service returns a coach
// without a school logo.
const DefaultLogoURL = "https://upload.wikimedia.org/wikipedia/commons/3/38/Solid_white_bordered.png"

// CoachProfile is a single coaching-staff member as returned by the search
// endpoint. It has no identity of its own beyond Key().
type CoachProfile struct {
	Name          string `json:"name"`
	Position      string `json:"position"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Twitter       string `json:"twitter,omitempty"`
	School        string `json:"school"`
	Sport         string `json:"sport"`
	SchoolLogoURL string `json:"school_logo_url,omitempty"`
}

// Key identifies a profile inside one result list: lowercase (name, school, position).
func (c CoachProfile) Key() string {
	return lowerKey(c.Name, c.School, c.Position)
}

// SavedKey is the contact uniqueness key: lowercase (name, school).
func (c CoachProfile) SavedKey() string {
	return SavedKey(c.Name, c.School)
}

// Reachable reports whether the profile carries an email or a phone number.
func (c CoachProfile) Reachable() bool {
	return strings.TrimSpace(c.Email) != "" || strings.TrimSpace(c.Phone) != ""
}

// WithLogoFallback returns a copy whose SchoolLogoURL is never empty.
func (c CoachProfile) WithLogoFallback() CoachProfile {
	if strings.TrimSpace(c.SchoolLogoURL) == "" {
		c.SchoolLogoURL = DefaultLogoURL
	}
	return c
}

// SavedKey builds the case-insensitive (name, school) contact key.
func SavedKey(name, school string) string {
	return lowerKey(name, school)
}

func lowerKey(parts ...string) string {
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "\x1f")
}

// SavedCoach is a persisted contact owned by one user. ID is empty until the
// remote insert has been acknowledged.
type SavedCoach struct {
	CoachProfile
	ID        string    `json:"id,omitempty"`
	Contacted bool      `json:"contacted"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Channel values for outreach templates.
const (
	ChannelEmail = "email"
	ChannelText  = "text"
)

// Template is an outreach message template. ClientID is assigned locally so
// a template can be edited or deleted before its server ID is known.
type Template struct {
	ID           string    `json:"id,omitempty"`
	ClientID     uuid.UUID `json:"-"`
	Name         string    `json:"template_name"`
	Subject      string    `json:"subject_line"`
	Body         string    `json:"message_body"`
	Channel      string    `json:"channel"`
	HighlightURL string    `json:"highlight_url,omitempty"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// User is an account row.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is the authenticated state handed to the stores.
type Session struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the access token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

// SearchRequest is the body accepted by the search endpoints.
type SearchRequest struct {
	SchoolName string `json:"school_name"`
	SportName  string `json:"sport_name"`
}

// Job status values mirror background_jobs.status.
const (
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// Job is an asynchronous search tracked in background_jobs.
type Job struct {
	ID           uuid.UUID      `json:"id"`
	UserID       string         `json:"user_id"`
	Status       string         `json:"status"`
	Payload      SearchRequest  `json:"payload"`
	ErrorMessage *string        `json:"error_message"`
	Results      []CoachProfile `json:"results"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// JobResponse is returned when a search was queued instead of served from cache.
type JobResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}
