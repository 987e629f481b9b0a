package domain

import (
	"regexp"
	"strings"
	"time"
)

// Workspace represents a Slack team: the top-level ownership boundary.
type Workspace struct {
	ID   string
	Name string
	Slug string

	SlackTeamID    string
	SlackTeamName  string
	SlackBotUserID *string

	DefaultTaskPriority *TaskPriority
	AIExtractionEnabled bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// DeriveSlug builds the workspace slug from the Slack team name and team ID:
// lowercased name with non-alphanumeric runs collapsed to dashes, suffixed
// with the last four characters of the team ID for uniqueness.
func DeriveSlug(teamName, teamID string) string {
	slug := strings.ToLower(teamName)
	slug = slugStrip.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	suffix := teamID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	suffix = strings.ToLower(suffix)

	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}
