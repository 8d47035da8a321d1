package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fault-record/scraper/internal/cfg"
	"github.com/fault-record/scraper/internal/checkpoint"
	"github.com/fault-record/scraper/internal/cronicle"
	"github.com/fault-record/scraper/internal/logger"
	"github.com/fault-record/scraper/internal/sources"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}
	logger.Setup(appCfg.Debug)

	if appCfg.CronicleURL == "" || appCfg.CronicleAPIKey == "" {
		fmt.Println("CRONICLE_URL and CRONICLE_API_KEY must be set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defs, err := sources.NewLoader(appCfg.SourcesDir).LoadAll()
	if err != nil {
		slog.Error("Failed to load source definitions", "error", err)
		os.Exit(1)
	}
	slog.Info("Starting scraper runner", "version", appCfg.Version, "sources", len(defs))

	scheduler := cronicle.NewClient(appCfg.CronicleURL, appCfg.CronicleAPIKey,
		&http.Client{Timeout: appCfg.RequestTimeout})
	cursors := checkpoint.NewStore(appCfg.CheckpointDir)

	failed := 0
	for _, source := range defs {
		if ctx.Err() != nil {
			break
		}
		if !source.Enabled {
			slog.Info("Skipping disabled source", "name", source.Name)
			continue
		}
		if err := runSource(ctx, scheduler, cursors, appCfg, source); err != nil {
			slog.Error("Source run failed", "name", source.Name, "error", err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// runSource schedules one scrape job and waits for it: create a one-shot
// event carrying the source identifiers and the resume cursor, run it,
// poll until the job ends, store the end time as the next cursor, then
// drop the event from the schedule.
func runSource(ctx context.Context, scheduler *cronicle.Client, cursors *checkpoint.Store,
	appCfg *cfg.Cfg, source *sources.Source) error {
	oldest, err := cursors.Read(source.Target())
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}

	params := map[string]string{"OLDEST_TIMESTAMP": oldest}
	if source.Kind == sources.KindGitLab {
		params["PROJECT"] = source.Project
	} else {
		params["CHANNEL_ID"] = source.Channel
	}
	if source.AllMessages {
		params["ALL_MESSAGES"] = "true"
	}

	eventID, err := scheduler.CreateEvent(ctx, cronicle.Event{
		Title:    "Fault record scraper: " + source.Name,
		Category: appCfg.CronicleCategory,
		Plugin:   appCfg.CroniclePlugin,
		Target:   appCfg.CronicleTarget,
		Enabled:  1,
		Params:   params,
	})
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	defer func() {
		// Clean up even when the run fails, or one-shot events pile up
		// in the schedule.
		if err := scheduler.DeleteEvent(context.WithoutCancel(ctx), eventID); err != nil {
			slog.Warn("Failed to delete event", "event_id", eventID, "error", err)
		}
	}()

	jobID, err := scheduler.RunEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to run event: %w", err)
	}
	slog.Info("Job started", "name", source.Name, "event_id", eventID, "job_id", jobID)

	job, err := scheduler.WaitForJob(ctx, jobID, appCfg.PollInterval)
	if err != nil {
		return fmt.Errorf("failed waiting for job: %w", err)
	}

	endTS := strconv.FormatFloat(job.TimeEnd, 'f', -1, 64)
	if err := cursors.Write(source.Target(), endTS); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	slog.Info("Task completed", "type", "RunSource", "name", source.Name,
		"job_id", jobID, "time_end", endTS)
	return nil
}
