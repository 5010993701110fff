package fpl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const fixturesPayload = `[
  {"id": 101, "event": 10, "kickoff_time": "2025-10-18T14:00:00Z", "started": true, "minutes": 90,
   "finished": true, "finished_provisional": true, "team_h": 1, "team_a": 2, "team_h_score": 2, "team_a_score": 0},
  {"id": 102, "event": 10, "kickoff_time": "2025-10-18T16:30:00Z", "started": false, "minutes": 0,
   "finished": false, "finished_provisional": false, "team_h": 3, "team_a": 4, "team_h_score": null, "team_a_score": null},
  {"id": 103, "event": null, "kickoff_time": null, "started": null, "minutes": 0,
   "finished": false, "finished_provisional": false, "team_h": 5, "team_a": 6, "team_h_score": null, "team_a_score": null}
]`

const bootstrapPayload = `{
  "events": [
    {"id": 9, "name": "Gameweek 9", "deadline_time": "2025-10-11T10:00:00Z", "finished": true, "is_previous": true, "is_current": false, "is_next": false},
    {"id": 10, "name": "Gameweek 10", "deadline_time": "2025-10-18T10:00:00Z", "finished": false, "is_previous": false, "is_current": true, "is_next": false}
  ],
  "teams": [
    {"id": 1, "name": "Arsenal", "short_name": "ARS", "strength": 5},
    {"id": 2, "name": "Burnley", "short_name": "BUR", "strength": 2}
  ]
}`

func TestClient_FetchFixturesByGameweek(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fixtures/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("event"); got != "10" {
			t.Errorf("unexpected event query %q", got)
		}
		_, _ = w.Write([]byte(fixturesPayload))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})
	fixtures, err := client.FetchFixturesByGameweek(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the fixture without an event or kickoff is dropped
	if len(fixtures) != 2 {
		t.Fatalf("expected 2 fixtures, got %d", len(fixtures))
	}

	first := fixtures[0]
	if first.ExternalID != 101 || first.Gameweek != 10 {
		t.Fatalf("unexpected fixture identity: %+v", first)
	}
	if !first.Finished || !first.FinishedProvisional {
		t.Fatalf("expected finished flags set: %+v", first)
	}
	if first.HomeScore == nil || *first.HomeScore != 2 || first.AwayScore == nil || *first.AwayScore != 0 {
		t.Fatalf("unexpected scores: %+v", first)
	}
	wantKickoff := time.Date(2025, 10, 18, 14, 0, 0, 0, time.UTC)
	if !first.KickoffAt.Equal(wantKickoff) {
		t.Fatalf("unexpected kickoff: %v", first.KickoffAt)
	}

	second := fixtures[1]
	if second.Started || second.Finished || second.HomeScore != nil {
		t.Fatalf("expected upcoming fixture untouched: %+v", second)
	}
}

func TestClient_FetchBootstrap(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bootstrap-static/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(bootstrapPayload))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})
	bootstrap, err := client.FetchBootstrap(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bootstrap.Teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(bootstrap.Teams))
	}
	if bootstrap.Teams[0].ShortName != "ARS" || bootstrap.Teams[0].Strength != 5 {
		t.Fatalf("unexpected team mapping: %+v", bootstrap.Teams[0])
	}

	if len(bootstrap.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(bootstrap.Events))
	}
	if !bootstrap.Events[1].IsCurrent || bootstrap.Events[1].ID != 10 {
		t.Fatalf("unexpected current event: %+v", bootstrap.Events[1])
	}
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(fixturesPayload))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, MaxRetries: 2})
	if _, err := client.FetchFixturesByGameweek(context.Background(), 10); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestClient_DoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, MaxRetries: 3})
	if _, err := client.FetchFixturesByGameweek(context.Background(), 10); err == nil {
		t.Fatalf("expected error for 404 response")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected single call for non-retryable status, got %d", got)
	}
}
