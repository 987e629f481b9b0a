package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fixbot/fixbot/internal/domain"
	"github.com/fixbot/fixbot/internal/extract"
	"github.com/fixbot/fixbot/internal/repository"
	"github.com/fixbot/fixbot/internal/slack"
)

// usageHint is posted when a mention carries no task description.
const usageHint = "Please include a description of the task. Example:\n`@fixbot Login button not working on mobile`"

// Dispatcher routes Slack events to task operations. Processing failures are
// terminal per event: they are logged, never retried, and never surface to
// Slack as webhook errors.
type Dispatcher struct {
	tasks         *TaskService
	workspaceRepo *repository.WorkspaceRepository
	channelRepo   *repository.ChannelRepository
	taskRepo      *repository.TaskRepository
	extractor     extract.Extractor
	slackClient   *slack.Client

	extractionTimeout time.Duration
}

// NewDispatcher creates a new Dispatcher. extractor may be nil, in which case
// every mention is classified heuristically. slackClient may be nil in tests;
// outbound messages are then skipped.
func NewDispatcher(
	tasks *TaskService,
	workspaceRepo *repository.WorkspaceRepository,
	channelRepo *repository.ChannelRepository,
	taskRepo *repository.TaskRepository,
	extractor extract.Extractor,
	slackClient *slack.Client,
	extractionTimeout time.Duration,
) *Dispatcher {
	return &Dispatcher{
		tasks:             tasks,
		workspaceRepo:     workspaceRepo,
		channelRepo:       channelRepo,
		taskRepo:          taskRepo,
		extractor:         extractor,
		slackClient:       slackClient,
		extractionTimeout: extractionTimeout,
	}
}

// MentionEvent is an app_mention event, already unwrapped from its envelope.
type MentionEvent struct {
	TeamID    string
	ChannelID string
	UserID    string
	Text      string
	TS        string
	ThreadTS  string
}

// threadTS is the thread the bot replies into: the existing thread when the
// mention was already threaded, otherwise the mention itself becomes the root.
func (e MentionEvent) threadTS() string {
	if e.ThreadTS != "" {
		return e.ThreadTS
	}
	return e.TS
}

// HandleMention processes an app_mention: extract a draft from the message
// text, create a task, and post a confirmation with one-click status buttons.
// A mention from an unregistered team is logged and dropped. A confirmation
// delivery failure does not roll the task back; the task exists regardless.
func (d *Dispatcher) HandleMention(ctx context.Context, ev MentionEvent) error {
	ws, err := d.workspaceRepo.GetBySlackTeamID(ctx, ev.TeamID)
	if err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			slog.Warn("mention from unregistered team", "team_id", ev.TeamID)
			return nil
		}
		return fmt.Errorf("lookup workspace: %w", err)
	}

	text := slack.StripMentions(ev.Text)
	if text == "" {
		d.post(ctx, slack.Message{
			ChannelID: ev.ChannelID,
			ThreadTS:  ev.threadTS(),
			Text:      usageHint,
		})
		return nil
	}

	var channelHint string
	if mapping, err := d.channelRepo.GetBySlackChannelID(ctx, ev.ChannelID); err == nil {
		channelHint = mapping.SlackChannelName
	}

	var draft *extract.Draft
	if ws.AIExtractionEnabled && d.extractor != nil {
		extractCtx, cancel := context.WithTimeout(ctx, d.extractionTimeout)
		draft = extract.ExtractOrFallback(extractCtx, d.extractor, text, channelHint)
		cancel()
	} else {
		draft = extract.Classify(text)
	}

	model := "heuristic"
	if d.extractor != nil && ws.AIExtractionEnabled {
		model = d.extractor.Model()
	}

	task, err := d.tasks.CreateTaskFromSlack(ctx, CreateTaskParams{
		Workspace:      ws,
		Title:          draft.Title,
		Description:    draft.Description,
		Priority:       draft.Priority,
		TaskType:       draft.TaskType,
		SlackChannelID: ev.ChannelID,
		SlackMessageTS: ev.TS,
		SlackThreadTS:  ev.threadTS(),
		SlackUserID:    ev.UserID,
		CodeContext:    draft.CodeContext,
		AIExtraction: &domain.AIExtraction{
			ExtractedAt:  time.Now(),
			Model:        model,
			Confidence:   draft.Confidence,
			OriginalText: text,
		},
	})
	if err != nil {
		return fmt.Errorf("create task from mention: %w", err)
	}

	d.post(ctx, confirmationMessage(ev.ChannelID, ev.threadTS(), task))
	return nil
}

// confirmationMessage builds the task-created reply with status buttons.
func confirmationMessage(channelID, threadTS string, task *domain.Task) slack.Message {
	return slack.Message{
		ChannelID: channelID,
		ThreadTS:  threadTS,
		Text:      fmt.Sprintf("Task created: *%s*", task.DisplayID),
		Blocks: []slack.Block{
			slack.SectionBlock(fmt.Sprintf("%s *%s*: %s", task.TaskType.Emoji(), task.DisplayID, task.Title)),
			slack.ContextBlock(fmt.Sprintf("%s %s priority • %s", task.Priority.Emoji(), task.Priority, task.TaskType)),
			slack.ActionsBlock(
				slack.Button{
					Text:     "Start",
					ActionID: slack.StatusActionID(task.DisplayID, string(domain.TaskStatusInProgress)),
					Style:    "primary",
				},
				slack.Button{
					Text:     "Done",
					ActionID: slack.StatusActionID(task.DisplayID, string(domain.TaskStatusDone)),
				},
			),
		},
	}
}

// ThreadReplyEvent is a plain user message inside a thread.
type ThreadReplyEvent struct {
	TeamID    string
	ChannelID string
	UserID    string
	Text      string
	TS        string
	ThreadTS  string
}

// HandleThreadReply appends a thread reply to the task rooted at its thread.
// Replies in threads with no task, or from unregistered teams, are dropped
// silently.
func (d *Dispatcher) HandleThreadReply(ctx context.Context, ev ThreadReplyEvent) error {
	ws, err := d.workspaceRepo.GetBySlackTeamID(ctx, ev.TeamID)
	if err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			return nil
		}
		return fmt.Errorf("lookup workspace: %w", err)
	}

	task, err := d.taskRepo.GetBySlackThread(ctx, ws.ID, ev.ChannelID, ev.ThreadTS)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil
		}
		return fmt.Errorf("lookup thread task: %w", err)
	}

	if _, err := d.tasks.AddMessageFromSlack(ctx, task, ev.Text, ev.UserID, ev.TS); err != nil {
		return fmt.Errorf("add thread message: %w", err)
	}

	return nil
}

// HandleBlockAction processes one-click status-change button presses. The
// display ID in the action is resolved within the workspace of the payload's
// team; the same ID can exist in other workspaces. Each recognized action is
// applied independently; a missing task produces an apologetic reply rather
// than an error.
func (d *Dispatcher) HandleBlockAction(ctx context.Context, p *slack.InteractionPayload) error {
	ws, err := d.workspaceRepo.GetBySlackTeamID(ctx, p.Team.ID)
	if err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			slog.Warn("block action from unregistered team", "team_id", p.Team.ID)
			return nil
		}
		return fmt.Errorf("lookup workspace: %w", err)
	}

	threadTS := p.Message.ThreadTS
	if threadTS == "" {
		threadTS = p.Message.TS
	}

	for _, action := range p.Actions {
		displayID, status, ok := slack.ParseStatusActionID(action.ActionID)
		if !ok {
			continue
		}

		change, err := d.tasks.ChangeStatusByDisplayID(ctx, ws.ID, displayID, domain.TaskStatus(status), p.User.ID)
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				d.post(ctx, slack.Message{
					ChannelID: p.Channel.ID,
					ThreadTS:  threadTS,
					Text:      fmt.Sprintf("Task %s not found.", strings.ToUpper(displayID)),
				})
				continue
			}
			return fmt.Errorf("change status from action %q: %w", action.ActionID, err)
		}

		d.post(ctx, slack.Message{
			ChannelID: p.Channel.ID,
			ThreadTS:  threadTS,
			Text:      fmt.Sprintf("*%s* moved to `%s`", change.Task.DisplayID, change.NewStatus),
		})
	}

	return nil
}

// post sends a Slack message, logging delivery failures without propagating
// them.
func (d *Dispatcher) post(ctx context.Context, msg slack.Message) {
	if d.slackClient == nil {
		return
	}
	if err := d.slackClient.PostMessage(ctx, msg); err != nil {
		slog.Error("failed to post slack message",
			"channel_id", msg.ChannelID,
			"error", err,
		)
	}
}
