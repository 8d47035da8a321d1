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
	"github.com/fault-record/scraper/internal/gitlab"
	"github.com/fault-record/scraper/internal/ingest"
	"github.com/fault-record/scraper/internal/logger"
	"github.com/fault-record/scraper/internal/resolve"
)

type options struct {
	Project string `short:"p" long:"project" env:"PROJECT" description:"GitLab project path or numeric id (required)" required:"true"`
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

	if appCfg.GitLabToken == "" || appCfg.FaultRecordURL == "" {
		fmt.Println("GITLAB_TOKEN and FAULT_RECORD_API_URL must be set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := gitlab.NewClient(appCfg.GitLabToken, appCfg.GitLabURL,
		appCfg.PageSize, appCfg.QuotaThreshold, appCfg.QuotaLogEvery)
	if err != nil {
		slog.Error("Failed to create GitLab client", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: appCfg.RequestTimeout}
	recorder := faultrecord.NewClient(appCfg.FaultRecordURL, httpClient, appCfg.UserAgent)
	users := resolve.NewIdentity(source, recorder, resolve.ProfileRetry)
	cursors := checkpoint.NewStore(appCfg.CheckpointDir)
	mapper := ingest.NewMapper(users, resolve.NewSignals(recorder), appCfg.FlagReaction, false)
	driver := ingest.NewIssueDriver(source, mapper, recorder, cursors)

	slog.Info("Starting GitLab scraper", "version", appCfg.Version, "project", opts.Project)

	if err := driver.Run(ctx, opts.Project); err != nil {
		slog.Error("Scrape failed", "project", opts.Project, "error", err)
		os.Exit(1)
	}
}
