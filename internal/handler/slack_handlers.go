package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/fixbot/fixbot/internal/config"
	"github.com/fixbot/fixbot/internal/service"
	"github.com/fixbot/fixbot/internal/slack"
)

// maxSlackBodySize bounds inbound webhook bodies.
const maxSlackBodySize = 1 << 20 // 1 MB

// dispatchTimeout bounds background event processing. Slack requires the
// HTTP response within 3 seconds, so processing runs detached from the
// request context.
const dispatchTimeout = 30 * time.Second

// verifiedBody reads the request body and checks the Slack request signature.
// On failure the response has already been written and nil is returned. An
// unconfigured signing secret rejects everything: an empty-key HMAC would
// verify any forged request.
func (h *Handler) verifiedBody(w http.ResponseWriter, r *http.Request) []byte {
	if h.signingSecret == "" {
		http.Error(w, "slack integration not configured", http.StatusUnauthorized)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxSlackBodySize))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return nil
	}

	err = slack.VerifySignature(
		h.signingSecret,
		r.Header.Get("X-Slack-Request-Timestamp"),
		r.Header.Get("X-Slack-Signature"),
		body,
		time.Now(),
		config.SignatureMaxAge,
	)
	if err != nil {
		slog.Warn("rejected slack request", "error", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return nil
	}

	return body
}

// handleSlackEvents receives Events API callbacks. The endpoint acknowledges
// immediately and processes the event in the background: Slack retries
// anything not answered within 3 seconds, and retried mentions would create
// duplicate tasks.
// @Summary Slack Events API endpoint
// @Description Receives url_verification and event_callback payloads from Slack.
// @Tags slack
// @Accept json
// @Produce json
// @Success 200
// @Failure 401
// @Router /slack/events [post]
func (h *Handler) handleSlackEvents(w http.ResponseWriter, r *http.Request) {
	body := h.verifiedBody(w, r)
	if body == nil {
		return
	}

	env, err := slack.ParseEnvelope(body)
	if err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	switch env.Type {
	case slack.EnvelopeURLVerification:
		respondJSON(w, http.StatusOK, map[string]string{"challenge": env.Challenge})
		return

	case slack.EnvelopeEventCallback:
		w.WriteHeader(http.StatusOK)
		go h.processEvent(env)
		return

	default:
		w.WriteHeader(http.StatusOK)
	}
}

// processEvent routes one unwrapped event, detached from the HTTP request.
func (h *Handler) processEvent(env *slack.Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	ev := env.Event
	if ev == nil {
		return
	}

	switch {
	case ev.Type == slack.EventAppMention:
		err := h.dispatcher.HandleMention(ctx, service.MentionEvent{
			TeamID:    env.TeamID,
			ChannelID: ev.Channel,
			UserID:    ev.User,
			Text:      ev.Text,
			TS:        ev.TS,
			ThreadTS:  ev.ThreadTS,
		})
		if err != nil {
			slog.Error("failed to handle mention",
				"team_id", env.TeamID,
				"channel_id", ev.Channel,
				"error", err,
			)
		}

	case ev.IsThreadReply():
		err := h.dispatcher.HandleThreadReply(ctx, service.ThreadReplyEvent{
			TeamID:    env.TeamID,
			ChannelID: ev.Channel,
			UserID:    ev.User,
			Text:      ev.Text,
			TS:        ev.TS,
			ThreadTS:  ev.ThreadTS,
		})
		if err != nil {
			slog.Error("failed to handle thread reply",
				"team_id", env.TeamID,
				"channel_id", ev.Channel,
				"error", err,
			)
		}
	}
}

// handleSlackInteractive receives block action payloads from interactive
// components. The payload arrives as a form field named "payload".
// @Summary Slack interactivity endpoint
// @Description Receives block_actions payloads for one-click status buttons.
// @Tags slack
// @Accept x-www-form-urlencoded
// @Success 200
// @Failure 401
// @Router /slack/interactive [post]
func (h *Handler) handleSlackInteractive(w http.ResponseWriter, r *http.Request) {
	body := h.verifiedBody(w, r)
	if body == nil {
		return
	}

	// The signed body is the raw form encoding; parse it after verification.
	values, err := parseForm(body)
	if err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	payload, err := slack.ParseInteraction([]byte(values.Get("payload")))
	if err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)

	if payload.Type != "block_actions" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := h.dispatcher.HandleBlockAction(ctx, payload); err != nil {
			slog.Error("failed to handle block action",
				"team_id", payload.Team.ID,
				"error", err,
			)
		}
	}()
}

// parseForm decodes a urlencoded body.
func parseForm(body []byte) (url.Values, error) {
	return url.ParseQuery(string(body))
}
