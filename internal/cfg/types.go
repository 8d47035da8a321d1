package cfg

import "time"

type Cfg struct {
	// Slack configuration
	SlackToken        string
	SlackWorkspaceURL string
	MessageLimit      int
	FlagReaction      string
	UpdateWindow      time.Duration

	// GitLab configuration
	GitLabToken    string
	GitLabURL      string
	PageSize       int
	QuotaThreshold int
	QuotaLogEvery  int

	// Fault record API configuration
	FaultRecordURL string
	RequestTimeout time.Duration

	// Runner configuration
	CronicleURL      string
	CronicleAPIKey   string
	CroniclePlugin   string
	CronicleCategory string
	CronicleTarget   string
	SourcesDir       string
	PollInterval     time.Duration

	// Application metadata
	CheckpointDir string
	UserAgent     string
	Debug         bool
	Version       string
}
