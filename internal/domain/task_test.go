package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fixbot/fixbot/internal/domain"
)

func TestDisplayPrefix(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"acme-corp-0abc", "ACM"},
		{"fixbot", "FIX"},
		{"go", "GO"},
		{"x1-team", "X1T"},
		{"---", "TSK"},
		{"", "TSK"},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.DisplayPrefix(tt.slug))
		})
	}
}

func TestFormatDisplayID(t *testing.T) {
	assert.Equal(t, "ACM-1", domain.FormatDisplayID("acme-corp-0abc", 1))
	assert.Equal(t, "ACM-42", domain.FormatDisplayID("acme-corp-0abc", 42))
	assert.Equal(t, "TSK-7", domain.FormatDisplayID("", 7))
}

func TestDeriveSlug(t *testing.T) {
	tests := []struct {
		teamName string
		teamID   string
		want     string
	}{
		{"Acme Corp", "T0000ABC", "acme-corp-0abc"},
		{"Go! Team", "T1234WXYZ", "go-team-wxyz"},
		{"---", "T99", "t99"},
	}

	for _, tt := range tests {
		t.Run(tt.teamName, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.DeriveSlug(tt.teamName, tt.teamID))
		})
	}
}

func TestTaskStatusIsValid(t *testing.T) {
	for _, status := range []domain.TaskStatus{
		domain.TaskStatusBacklog, domain.TaskStatusTodo, domain.TaskStatusInProgress,
		domain.TaskStatusInReview, domain.TaskStatusDone, domain.TaskStatusCancelled,
	} {
		assert.True(t, status.IsValid(), "status %s", status)
	}

	assert.False(t, domain.TaskStatus("archived").IsValid())
	assert.False(t, domain.TaskStatus("").IsValid())
	assert.False(t, domain.TaskStatus("DONE").IsValid(), "statuses are case-sensitive")
}

func TestTaskStatusIsTerminal(t *testing.T) {
	assert.True(t, domain.TaskStatusDone.IsTerminal())
	assert.True(t, domain.TaskStatusCancelled.IsTerminal())
	assert.False(t, domain.TaskStatusInProgress.IsTerminal())
	assert.False(t, domain.TaskStatusBacklog.IsTerminal())
}

func TestCodeContextIsEmpty(t *testing.T) {
	var nilCtx *domain.CodeContext
	assert.True(t, nilCtx.IsEmpty())
	assert.True(t, (&domain.CodeContext{}).IsEmpty())

	msg := "TypeError: x is undefined"
	assert.False(t, (&domain.CodeContext{ErrorMessage: &msg}).IsEmpty())
	assert.False(t, (&domain.CodeContext{FilePaths: []string{"src/auth.ts"}}).IsEmpty())
}
