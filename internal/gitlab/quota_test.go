package gitlab

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	gitlabapi "gitlab.com/gitlab-org/api/client-go"
)

func quotaResponse(remaining int, resetAt time.Time) *gitlabapi.Response {
	header := http.Header{}
	header.Set("RateLimit-Remaining", strconv.Itoa(remaining))
	header.Set("RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	return &gitlabapi.Response{Response: &http.Response{Header: header}}
}

func TestQuotaGuard_Observe_BlocksUntilReset(t *testing.T) {
	start := time.Unix(1_600_000_000, 0)
	clock := start
	sleeps := 0

	guard := newQuotaGuard(10, 100)
	guard.now = func() time.Time { return clock }
	guard.sleep = func(d time.Duration) {
		sleeps++
		clock = clock.Add(d)
	}

	guard.observe(quotaResponse(10, start.Add(3*time.Second)))

	if sleeps != 4 {
		t.Errorf("Expected 4 one-second sleeps until past the reset, got %d", sleeps)
	}
}

func TestQuotaGuard_Observe_AboveThresholdDoesNotBlock(t *testing.T) {
	sleeps := 0
	guard := newQuotaGuard(10, 100)
	guard.sleep = func(time.Duration) { sleeps++ }

	guard.observe(quotaResponse(11, time.Now().Add(time.Hour)))

	if sleeps != 0 {
		t.Errorf("Expected no sleeps above the threshold, got %d", sleeps)
	}
}

func TestQuotaGuard_Observe_MissingHeaders(t *testing.T) {
	sleeps := 0
	guard := newQuotaGuard(10, 100)
	guard.sleep = func(time.Duration) { sleeps++ }

	guard.observe(&gitlabapi.Response{Response: &http.Response{Header: http.Header{}}})
	guard.observe(nil)

	if sleeps != 0 {
		t.Errorf("Expected headerless responses to pass through, got %d sleeps", sleeps)
	}
}
