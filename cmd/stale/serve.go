package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/stale/internal/config"
	"github.com/steveyegge/stale/internal/logging"
	"github.com/steveyegge/stale/internal/scheduler"
	"github.com/steveyegge/stale/internal/stale"
	"github.com/steveyegge/stale/internal/telemetry"
	"github.com/steveyegge/stale/internal/webhook"
)

var serveNoSchedule bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server and the periodic sweep",
	Long: `Listens for GitHub webhook deliveries on POST /webhook and removes the
stale label when an item sees activity. Every schedule.interval it sweeps the
configured repositories (or every repository the token can access).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoSchedule, "no-schedule", false, "Only handle webhooks; do not sweep periodically")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newGitHubClient()
	if err != nil {
		return err
	}
	remote := telemetry.WrapRemote(client)
	loader := newLoader(client)
	dryRun := config.GetBool(config.KeyDryRun)
	botLogin, err := resolveBotLogin(ctx, client)
	if err != nil {
		return err
	}

	guard := &stale.Guard{
		Configs:  loader,
		Remote:   remote,
		BotLogin: botLogin,
		Logger:   logger,
		Options:  engineOptions(dryRun, nil),
	}
	server := webhook.NewServer(webhook.ServerConfig{
		Guard:  guard,
		Secret: []byte(config.GetString(config.KeyWebhookSecret)),
		Logger: logger,
	})

	var sched *scheduler.Scheduler
	if !serveNoSchedule {
		repos, err := repoSource(client)
		if err != nil {
			return err
		}
		sweeper := &stale.Sweeper{
			Configs: loader,
			Remote:  remote,
			Logger:  logger,
			Options: engineOptions(dryRun, nil),
		}
		sched = &scheduler.Scheduler{
			Repos: repos,
			Sweep: func(ctx context.Context, owner, repo string) error {
				_, err := sweeper.Sweep(ctx, owner, repo)
				return err
			},
			Interval:    config.GetDuration(config.KeyScheduleInterval),
			Concurrency: config.GetInt(config.KeyScheduleConcurrency),
			Logger:      logger,
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	}

	config.Watch(func() {
		lvl, err := logging.ParseLevel(config.GetString(config.KeyLogLevel))
		if err != nil {
			logger.Warn("ignoring reloaded log level", "error", err)
			return
		}
		levelVar.Set(lvl)
		logger.Info("config reloaded", "file", config.ConfigFileUsed(), "log_level", lvl)
	})

	addr := config.GetString(config.KeyWebhookAddr)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("webhook server listening", "addr", addr, "dry_run", dryRun, "bot_login", botLogin,
			"schedule", !serveNoSchedule, "config", config.Redacted())
		errCh <- server.Start(addr)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
