package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixbot/fixbot/internal/config"
	"github.com/fixbot/fixbot/internal/extract"
	"github.com/fixbot/fixbot/internal/handler/dto"
	"github.com/fixbot/fixbot/internal/middleware"
	"github.com/fixbot/fixbot/internal/repository"
	"github.com/fixbot/fixbot/internal/service"
	"github.com/fixbot/fixbot/internal/slack"
)

// Options carries the external-service credentials the handler needs.
// Empty values disable the corresponding integration: no signing secret
// rejects all Slack requests, no extractor falls back to heuristics, no bot
// token skips outbound messages.
type Options struct {
	SlackSigningSecret string
	SlackBotToken      string
	AnthropicAPIKey    string
	AnthropicModel     string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	pool             *pgxpool.Pool
	taskService      *service.TaskService
	workspaceService *service.WorkspaceService
	dispatcher       *service.Dispatcher
	taskRepo         *repository.TaskRepository
	activityRepo     *repository.ActivityRepository
	messageRepo      *repository.MessageRepository
	userRepo         *repository.UserRepository
	workspaceRepo    *repository.WorkspaceRepository
	channelRepo      *repository.ChannelRepository
	repoRepo         *repository.RepoRepository
	authMiddleware   *middleware.AuthMiddleware

	signingSecret string
}

// New creates a new Handler instance with all dependencies.
func New(pool *pgxpool.Pool, opts Options) *Handler {
	taskRepo := repository.NewTaskRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	workspaceRepo := repository.NewWorkspaceRepository(pool)
	channelRepo := repository.NewChannelRepository(pool)
	repoRepo := repository.NewRepoRepository(pool)
	counterRepo := repository.NewCounterRepository(pool)

	taskService := service.NewTaskService(pool, taskRepo, activityRepo, messageRepo, userRepo, channelRepo, counterRepo)
	workspaceService := service.NewWorkspaceService(workspaceRepo)

	var extractor extract.Extractor
	if opts.AnthropicAPIKey != "" {
		model := opts.AnthropicModel
		if model == "" {
			model = config.DefaultAnthropicModel
		}
		extractor = extract.NewAnthropicExtractor(opts.AnthropicAPIKey, model, config.ExtractionTimeout)
	}

	var slackClient *slack.Client
	if opts.SlackBotToken != "" {
		slackClient = slack.NewClient(opts.SlackBotToken, config.SlackTimeout)
	}

	dispatcher := service.NewDispatcher(
		taskService, workspaceRepo, channelRepo, taskRepo,
		extractor, slackClient, config.ExtractionTimeout,
	)

	authMiddleware := middleware.NewAuthMiddleware(userRepo)

	return &Handler{
		pool:             pool,
		taskService:      taskService,
		workspaceService: workspaceService,
		dispatcher:       dispatcher,
		taskRepo:         taskRepo,
		activityRepo:     activityRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		workspaceRepo:    workspaceRepo,
		channelRepo:      channelRepo,
		repoRepo:         repoRepo,
		authMiddleware:   authMiddleware,
		signingSecret:    opts.SlackSigningSecret,
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// Slack inbound webhooks (authenticated by request signature)
	mux.HandleFunc("POST /slack/events", h.handleSlackEvents)
	mux.HandleFunc("POST /slack/interactive", h.handleSlackInteractive)

	// Dashboard API with session authentication
	mux.Handle("GET /api/v1/tasks", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleListTasks)))
	mux.Handle("GET /api/v1/tasks/{displayId}", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleGetTask)))
	mux.Handle("PATCH /api/v1/tasks/{displayId}/status", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleChangeStatus)))
	mux.Handle("PATCH /api/v1/tasks/{displayId}/assignee", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleAssignTask)))

	mux.Handle("GET /api/v1/repositories", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleListRepositories)))
	mux.Handle("POST /api/v1/repositories", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleLinkRepository)))
	mux.Handle("PATCH /api/v1/repositories/{id}", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleUpdateRepository)))
	mux.Handle("DELETE /api/v1/repositories/{id}", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleUnlinkRepository)))

	mux.Handle("GET /api/v1/stats", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleGetStats)))

	mux.Handle("GET /api/v1/channels", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleListChannels)))
	mux.Handle("POST /api/v1/channels", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleMapChannel)))
	mux.Handle("PATCH /api/v1/channels/{id}", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleUpdateChannel)))
	mux.Handle("DELETE /api/v1/channels/{id}", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleUnmapChannel)))
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.pool.Ping(ctx); err != nil {
		slog.Error("database health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Ping checks if the database is reachable (used for testing).
func (h *Handler) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}
