package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fault-record/scraper/internal/cfg"
	"github.com/fault-record/scraper/internal/checkpoint"
	"github.com/fault-record/scraper/internal/faultrecord"
	"github.com/fault-record/scraper/internal/ingest"
	"github.com/fault-record/scraper/internal/logger"
	"github.com/fault-record/scraper/internal/resolve"
	"github.com/fault-record/scraper/internal/slack"
)

type options struct {
	Channel     string `short:"c" long:"channel-id" env:"CHANNEL_ID" description:"Slack channel to scrape (required)" required:"true"`
	Oldest      string `short:"o" long:"oldest" env:"OLDEST_TIMESTAMP" description:"Scrape messages after this timestamp when no checkpoint exists yet"`
	AllMessages bool   `long:"all-messages" env:"ALL_MESSAGES" description:"Ingest every plain message instead of only flagged ones"`
	UpdatesOnly bool   `long:"updates-only" env:"UPDATES_ONLY" description:"Only refresh thread replies on recent fault records"`
}

func main() {
	var opts options

	appCfg, err := cfg.Load(&opts)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}
	logger.Setup(appCfg.Debug)

	if appCfg.SlackToken == "" || appCfg.FaultRecordURL == "" {
		fmt.Println("SLACK_TOKEN and FAULT_RECORD_API_URL must be set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: appCfg.RequestTimeout}
	recorder := faultrecord.NewClient(appCfg.FaultRecordURL, httpClient, appCfg.UserAgent)
	source := slack.NewClient(appCfg.SlackToken, appCfg.SlackWorkspaceURL, appCfg.MessageLimit)
	users := resolve.NewIdentity(source, recorder, resolve.ProfileRetry)
	signals := resolve.NewSignals(recorder)
	cursors := checkpoint.NewStore(appCfg.CheckpointDir)
	mapper := ingest.NewMapper(users, signals, appCfg.FlagReaction, opts.AllMessages)
	driver := ingest.NewDriver(source, mapper, recorder, cursors, appCfg.UpdateWindow)

	slog.Info("Starting Slack scraper", "version", appCfg.Version, "channel", opts.Channel)

	if opts.UpdatesOnly {
		err = driver.RunUpdatesOnly(ctx, opts.Channel)
	} else {
		err = driver.Run(ctx, opts.Channel, opts.Oldest)
	}
	if err != nil {
		slog.Error("Scrape failed", "channel", opts.Channel, "error", err)
		os.Exit(1)
	}
}
