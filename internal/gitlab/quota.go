package gitlab

import (
	"log/slog"
	"strconv"
	"time"

	gitlabapi "gitlab.com/gitlab-org/api/client-go"
)

// quotaGuard watches rate-limit headers on API responses. It logs the
// remaining quota at a fixed cadence and, once the quota falls to the
// threshold, blocks until the advertised reset time has passed. Responses
// without rate-limit headers pass through untouched.
type quotaGuard struct {
	threshold int
	logEvery  int

	now   func() time.Time
	sleep func(time.Duration)
}

func newQuotaGuard(threshold, logEvery int) *quotaGuard {
	return &quotaGuard{
		threshold: threshold,
		logEvery:  logEvery,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

func (g *quotaGuard) observe(resp *gitlabapi.Response) {
	if resp == nil {
		return
	}
	remaining, err := strconv.Atoi(resp.Header.Get("RateLimit-Remaining"))
	if err != nil {
		return
	}
	if g.logEvery > 0 && remaining%g.logEvery == 0 {
		slog.Info("API quota", "remaining", remaining)
	}
	if remaining > g.threshold {
		return
	}

	reset, err := strconv.ParseInt(resp.Header.Get("RateLimit-Reset"), 10, 64)
	if err != nil {
		return
	}
	resetAt := time.Unix(reset, 0)
	slog.Warn("API quota exhausted, waiting for reset", "remaining", remaining, "reset_at", resetAt)
	for !g.now().After(resetAt) {
		g.sleep(time.Second)
	}
	slog.Info("API quota reset, resuming")
}
