package slack_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixbot/fixbot/internal/slack"
)

const signingSecret = "8f742231b10e8888abcd99yyyzzz85a5"

func TestVerifySignature(t *testing.T) {
	now := time.Unix(1700000000, 0)
	timestamp := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{"type":"event_callback"}`)

	signature := slack.Sign(signingSecret, timestamp, body)

	err := slack.VerifySignature(signingSecret, timestamp, signature, body, now, 5*time.Minute)
	require.NoError(t, err)
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	now := time.Unix(1700000000, 0)
	timestamp := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{}`)

	signature := slack.Sign("some-other-secret", timestamp, body)

	err := slack.VerifySignature(signingSecret, timestamp, signature, body, now, 5*time.Minute)
	assert.ErrorIs(t, err, slack.ErrInvalidSignature)
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	now := time.Unix(1700000000, 0)
	timestamp := strconv.FormatInt(now.Unix(), 10)

	signature := slack.Sign(signingSecret, timestamp, []byte(`{"a":1}`))

	err := slack.VerifySignature(signingSecret, timestamp, signature, []byte(`{"a":2}`), now, 5*time.Minute)
	assert.ErrorIs(t, err, slack.ErrInvalidSignature)
}

func TestVerifySignature_StaleTimestamp(t *testing.T) {
	now := time.Unix(1700000000, 0)
	old := now.Add(-10 * time.Minute)
	timestamp := strconv.FormatInt(old.Unix(), 10)
	body := []byte(`{}`)

	signature := slack.Sign(signingSecret, timestamp, body)

	err := slack.VerifySignature(signingSecret, timestamp, signature, body, now, 5*time.Minute)
	assert.ErrorIs(t, err, slack.ErrStaleTimestamp)
}

func TestVerifySignature_FutureTimestamp(t *testing.T) {
	now := time.Unix(1700000000, 0)
	future := now.Add(10 * time.Minute)
	timestamp := strconv.FormatInt(future.Unix(), 10)
	body := []byte(`{}`)

	signature := slack.Sign(signingSecret, timestamp, body)

	err := slack.VerifySignature(signingSecret, timestamp, signature, body, now, 5*time.Minute)
	assert.ErrorIs(t, err, slack.ErrStaleTimestamp)
}

func TestVerifySignature_EmptySecret(t *testing.T) {
	now := time.Unix(1700000000, 0)
	timestamp := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{}`)

	// A request self-signed with an empty secret must still be rejected.
	signature := slack.Sign("", timestamp, body)

	err := slack.VerifySignature("", timestamp, signature, body, now, 5*time.Minute)
	assert.ErrorIs(t, err, slack.ErrNoSigningSecret)
}

func TestVerifySignature_GarbageTimestamp(t *testing.T) {
	err := slack.VerifySignature(signingSecret, "not-a-number", "v0=whatever", []byte(`{}`), time.Now(), 5*time.Minute)
	assert.ErrorIs(t, err, slack.ErrStaleTimestamp)
}
