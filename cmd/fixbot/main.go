// @title			FixBot API
// @version		1.0
// @description	Slack-driven issue tracker with AI task extraction.
// @BasePath		/api/v1

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/fixbot/fixbot/internal/config"
	"github.com/fixbot/fixbot/internal/database"
	"github.com/fixbot/fixbot/internal/domain"
	"github.com/fixbot/fixbot/internal/handler"
	"github.com/fixbot/fixbot/internal/logger"
	"github.com/fixbot/fixbot/internal/repository"
	"github.com/fixbot/fixbot/internal/service"
)

func main() {
	app := &cli.App{
		Name:  "fixbot",
		Usage: "Slack-driven issue tracker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:     "database-url",
				Aliases:  []string{"d"},
				Value:    config.DefaultDatabaseURL,
				Usage:    "PostgreSQL database URL",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
					&cli.StringFlag{
						Name:    "slack-bot-token",
						Usage:   "Slack bot token for outbound messages",
						EnvVars: []string{"SLACK_BOT_TOKEN"},
					},
					&cli.StringFlag{
						Name:    "slack-signing-secret",
						Usage:   "Slack signing secret for inbound request verification",
						EnvVars: []string{"SLACK_SIGNING_SECRET"},
					},
					&cli.StringFlag{
						Name:    "anthropic-api-key",
						Usage:   "Anthropic API key for AI task extraction",
						EnvVars: []string{"ANTHROPIC_API_KEY"},
					},
					&cli.StringFlag{
						Name:    "anthropic-model",
						Value:   config.DefaultAnthropicModel,
						Usage:   "Anthropic model used for extraction",
						EnvVars: []string{"ANTHROPIC_MODEL"},
					},
				},
				Action: runServe,
			},
			{
				Name:      "register-workspace",
				Usage:     "Register or refresh a Slack workspace",
				ArgsUsage: "<team-id> <team-name> [bot-user-id]",
				Action:    runRegisterWorkspace,
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func runServe(c *cli.Context) error {
	ctx := c.Context

	port := c.String("port")
	if port == "" {
		port = config.DefaultPort
	}
	databaseURL := c.String("database-url")

	db, err := database.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if c.String("slack-signing-secret") == "" {
		slog.Warn("no slack signing secret configured, all slack requests will be rejected")
	}
	if c.String("anthropic-api-key") == "" {
		slog.Info("no anthropic api key configured, using heuristic task extraction")
	}

	h := handler.New(db.Pool(), handler.Options{
		SlackSigningSecret: c.String("slack-signing-secret"),
		SlackBotToken:      c.String("slack-bot-token"),
		AnthropicAPIKey:    c.String("anthropic-api-key"),
		AnthropicModel:     c.String("anthropic-model"),
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runRegisterWorkspace(c *cli.Context) error {
	ctx := c.Context

	if c.NArg() < 2 {
		return fmt.Errorf("usage: fixbot register-workspace <team-id> <team-name> [bot-user-id]")
	}
	teamID := c.Args().Get(0)
	teamName := c.Args().Get(1)
	var botUserID *string
	if c.NArg() > 2 {
		id := c.Args().Get(2)
		botUserID = &id
	}

	db, err := database.New(ctx, c.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	workspaces := service.NewWorkspaceService(repository.NewWorkspaceRepository(db.Pool()))
	ws, err := workspaces.Register(ctx, teamID, teamName, botUserID)
	if err != nil {
		return fmt.Errorf("failed to register workspace: %w", err)
	}

	current, err := repository.NewCounterRepository(db.Pool()).Current(ctx, ws.ID)
	if err != nil {
		return fmt.Errorf("failed to read task counter: %w", err)
	}

	fmt.Printf("workspace %s registered with slug %s (next task: %s)\n",
		ws.ID, ws.Slug, domain.FormatDisplayID(ws.Slug, current+1))
	return nil
}
