package server

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/agcreativegroup/News-Research-Tool/config"
	"github.com/agcreativegroup/News-Research-Tool/models"
)

type recordingRunner struct {
	fired chan models.Query
}

func (r *recordingRunner) Run(ctx context.Context, query models.Query) (*models.ResearchResult, error) {
	r.fired <- query
	return &models.ResearchResult{RunID: "warm"}, nil
}

func TestIsDue(t *testing.T) {
	now := time.Now()
	hourAgo := now.Add(-time.Hour)
	dayAgo := now.Add(-25 * time.Hour)
	justNow := now.Add(-time.Second)

	cases := []struct {
		name string
		cron string
		last *time.Time
		want bool
	}{
		{"daily never ran", "@daily", nil, true},
		{"daily ran an hour ago", "@daily", &hourAgo, false},
		{"daily ran yesterday", "@daily", &dayAgo, true},
		{"hourly never ran", "@hourly", nil, true},
		{"hourly ran an hour ago", "@hourly", &hourAgo, true},
		{"hourly just ran", "@hourly", &justNow, false},
		{"cron never ran", "*/5 * * * *", nil, true},
		{"cron window passed", "*/5 * * * *", &hourAgo, true},
		{"cron next occurrence far ahead", "0 0 29 2 *", &justNow, false},
		{"invalid cron falls back to daily", "not-a-cron", &hourAgo, false},
		{"invalid cron due after a day", "not-a-cron", &dayAgo, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isDue(tc.cron, tc.last); got != tc.want {
				t.Fatalf("isDue(%q) = %v, want %v", tc.cron, got, tc.want)
			}
		})
	}
}

func TestSchedulerTickRunsDueEntries(t *testing.T) {
	runner := &recordingRunner{fired: make(chan models.Query, 4)}
	s := &Scheduler{
		Orch: runner,
		Entries: []config.WatchEntry{
			{Query: "tesla earnings", Cron: "@hourly", MaxArticles: 10},
			{Query: "fed rates", Cron: "@daily"},
		},
		LockTTL: time.Minute,
		Stop:    make(chan struct{}),
		logger:  log.New(io.Discard, "", 0),
		lastRun: make(map[string]time.Time),
	}

	s.tick()

	got := map[string]int{}
	for i := 0; i < 2; i++ {
		select {
		case q := <-runner.fired:
			got[q.Text] = q.MaxArticles
		case <-time.After(2 * time.Second):
			t.Fatalf("expected 2 watchlist runs, saw %d", len(got))
		}
	}
	if got["tesla earnings"] != 10 {
		t.Fatalf("expected the entry limit carried, got %+v", got)
	}
	if _, ok := got["fed rates"]; !ok {
		t.Fatalf("expected both entries to run, got %+v", got)
	}

	// Entries that just ran stay quiet on the next tick.
	s.tick()
	select {
	case q := <-runner.fired:
		t.Fatalf("entry %q refired immediately", q.Text)
	case <-time.After(100 * time.Millisecond):
	}
}
