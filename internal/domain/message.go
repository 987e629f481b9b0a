package domain

import "time"

// ContentType describes how a message body should be rendered.
type ContentType string

const (
	ContentTypeText     ContentType = "text"
	ContentTypeMarkdown ContentType = "markdown"
	ContentTypeSystem   ContentType = "system"
)

// Message is a comment on a task. SlackMessageTS links back to the Slack
// message it was synced from, for deduplication.
type Message struct {
	ID       string
	TaskID   string
	AuthorID *string

	Content     string
	ContentType ContentType

	SlackMessageTS *string

	IsEdited  bool
	EditedAt  *time.Time
	CreatedAt time.Time
}
