// Package config holds application-wide defaults. All values can be
// overridden via CLI flags or environment variables (see cmd/fixbot).
package config

import "time"

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultAnthropicModel is the model used for task extraction.
	DefaultAnthropicModel = "claude-sonnet-4-20250514"

	// ExtractionTimeout bounds a single AI extraction call. On expiry the
	// dispatcher degrades to the deterministic fallback.
	ExtractionTimeout = 15 * time.Second

	// SlackTimeout bounds outbound Slack Web API calls.
	SlackTimeout = 5 * time.Second

	// SignatureMaxAge is how far in the past a Slack request timestamp may
	// lie before the request is rejected as a replay.
	SignatureMaxAge = 5 * time.Minute
)
