package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Slack configuration
	SlackToken        string `long:"slack-token" env:"SLACK_TOKEN" description:"Slack bot token"`
	SlackWorkspaceURL string `long:"slack-workspace-url" env:"SLACK_WORKSPACE_URL" default:"https://delphi-org.slack.com" description:"Workspace root used to build message permalinks"`
	MessageLimit      int    `long:"message-limit" env:"MESSAGE_LIMIT_PER_REQUEST" default:"200" description:"Messages per conversation history page"`
	FlagReaction      string `long:"flag-reaction" env:"FLAG_REACTION" default:"triangular_flag_on_post" description:"Reaction that marks a message for ingestion"`
	UpdateDays        int    `long:"update-days" env:"UPDATE_REPLIES_FOR_DAYS" default:"7" description:"Look-back window in days for refreshing thread replies"`

	// GitLab configuration
	GitLabToken    string `long:"gitlab-token" env:"GITLAB_TOKEN" description:"GitLab API token"`
	GitLabURL      string `long:"gitlab-url" env:"GITLAB_URL" description:"GitLab instance URL (empty for gitlab.com)"`
	PageSize       int    `long:"page-size" env:"API_PAGE_SIZE" default:"100" description:"Items per API page"`
	QuotaThreshold int    `long:"quota-threshold" env:"API_QUOTA_THRESHOLD" default:"10" description:"Remaining API quota at which requests pause until reset"`
	QuotaLogEvery  int    `long:"quota-log-frequency" env:"API_LOGGING_FREQUENCY" default:"100" description:"Log remaining API quota every N calls"`

	// Fault record API configuration
	FaultRecordURL string `long:"fault-record-url" env:"FAULT_RECORD_API_URL" description:"Fault record API base URL"`
	RequestTimeout int    `long:"request-timeout" env:"API_REQUEST_TIMEOUT" default:"100" description:"HTTP request timeout in seconds"`

	// Runner configuration
	CronicleURL      string `long:"cronicle-url" env:"CRONICLE_URL" description:"Cronicle master URL"`
	CronicleAPIKey   string `long:"cronicle-api-key" env:"CRONICLE_API_KEY" description:"Cronicle API key"`
	CroniclePlugin   string `long:"cronicle-plugin" env:"CRONICLE_PLUGIN" default:"shellplug" description:"Cronicle plugin id the scrape events run with"`
	CronicleCategory string `long:"cronicle-category" env:"CRONICLE_CATEGORY" default:"general" description:"Cronicle event category"`
	CronicleTarget   string `long:"cronicle-target" env:"CRONICLE_TARGET" default:"allgrp" description:"Cronicle server group the events target"`
	SourcesDir       string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	PollInterval     int    `long:"poll-interval" env:"RUNNER_POLL_INTERVAL" default:"30" description:"Job status poll interval in seconds"`

	// Application metadata
	CheckpointDir string `long:"checkpoint-dir" env:"CHECKPOINT_DIR" default:"." description:"Directory for checkpoint files"`
	UserAgent     string `long:"user-agent" env:"USER_AGENT" default:"fault-record-scraper/1.0" description:"User agent string for HTTP requests"`
	Debug         bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses configuration from command line flags and the environment,
// .env file included. Each binary passes its own option group in extras;
// go-flags populates them during the same parse. A nil Cfg with a nil
// error means help was requested.
func Load(extras ...any) (*Cfg, error) {
	// A missing .env file is fine, the environment may be complete
	// already.
	_ = godotenv.Load()

	var raw rawCfg
	parser := flags.NewParser(&raw, flags.Default)
	for _, extra := range extras {
		if _, err := parser.AddGroup("Scraper options", "", extra); err != nil {
			return nil, fmt.Errorf("failed to register options: %w", err)
		}
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := fromRaw(raw)
	globalCfg = cfg

	return cfg, nil
}

func fromRaw(raw rawCfg) *Cfg {
	return &Cfg{
		SlackToken:        raw.SlackToken,
		SlackWorkspaceURL: raw.SlackWorkspaceURL,
		MessageLimit:      raw.MessageLimit,
		FlagReaction:      raw.FlagReaction,
		UpdateWindow:      time.Duration(raw.UpdateDays) * 24 * time.Hour,
		GitLabToken:       raw.GitLabToken,
		GitLabURL:         raw.GitLabURL,
		PageSize:          raw.PageSize,
		QuotaThreshold:    raw.QuotaThreshold,
		QuotaLogEvery:     raw.QuotaLogEvery,
		FaultRecordURL:    raw.FaultRecordURL,
		RequestTimeout:    time.Duration(raw.RequestTimeout) * time.Second,
		CronicleURL:       raw.CronicleURL,
		CronicleAPIKey:    raw.CronicleAPIKey,
		CroniclePlugin:    raw.CroniclePlugin,
		CronicleCategory:  raw.CronicleCategory,
		CronicleTarget:    raw.CronicleTarget,
		SourcesDir:        raw.SourcesDir,
		PollInterval:      time.Duration(raw.PollInterval) * time.Second,
		CheckpointDir:     raw.CheckpointDir,
		UserAgent:         raw.UserAgent,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
