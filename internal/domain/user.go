package domain

import "time"

// User is an identity record keyed by GitHub ID, optionally linked to a
// Slack user ID. A Slack ID with no matching user is a valid, expected state.
type User struct {
	ID        string
	Email     string
	Name      string
	AvatarURL *string

	GitHubID       int64
	GitHubUsername string

	SlackUserID   *string
	SlackUsername *string

	IsActive   bool
	LastSeenAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Session is a bearer token exchanged for a user identity by the dashboard.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
