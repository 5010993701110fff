package match

import (
	"testing"
	"time"
)

func ptrInt(v int) *int { return &v }

func TestDeriveResult(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		state      FixtureState
		wantResult Result
		wantOK     bool
	}{
		{
			name:       "home win",
			state:      FixtureState{Finished: true, FinishedProvisional: true, HomeScore: ptrInt(2), AwayScore: ptrInt(0)},
			wantResult: ResultHomeWin,
			wantOK:     true,
		},
		{
			name:       "away win",
			state:      FixtureState{Finished: true, FinishedProvisional: true, HomeScore: ptrInt(1), AwayScore: ptrInt(3)},
			wantResult: ResultAwayWin,
			wantOK:     true,
		},
		{
			name:       "draw",
			state:      FixtureState{Finished: true, FinishedProvisional: true, HomeScore: ptrInt(1), AwayScore: ptrInt(1)},
			wantResult: ResultDraw,
			wantOK:     true,
		},
		{
			name:   "finished but not confirmed",
			state:  FixtureState{Finished: true, FinishedProvisional: false, HomeScore: ptrInt(2), AwayScore: ptrInt(0)},
			wantOK: false,
		},
		{
			name:   "confirmed but not finished",
			state:  FixtureState{Finished: false, FinishedProvisional: true, HomeScore: ptrInt(2), AwayScore: ptrInt(0)},
			wantOK: false,
		},
		{
			name:   "finished with missing scores",
			state:  FixtureState{Finished: true, FinishedProvisional: true},
			wantOK: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := DeriveResult(tc.state)
			if ok != tc.wantOK {
				t.Fatalf("unexpected ok: got=%t want=%t", ok, tc.wantOK)
			}
			if ok && got != tc.wantResult {
				t.Fatalf("unexpected result: got=%s want=%s", got, tc.wantResult)
			}
		})
	}
}

func TestSyntheticID(t *testing.T) {
	t.Parallel()

	first := SyntheticID(2025, 10, 12345)
	second := SyntheticID(2025, 10, 12345)
	if first != second {
		t.Fatalf("synthetic id not deterministic: %d vs %d", first, second)
	}

	if SyntheticID(2025, 10, 12345) == SyntheticID(2025, 11, 12345) {
		t.Fatalf("synthetic id collides across gameweeks")
	}
	if SyntheticID(2025, 10, 12345) == SyntheticID(2026, 10, 12345) {
		t.Fatalf("synthetic id collides across years")
	}

	want := int64(25_10_12345)
	if first != want {
		t.Fatalf("unexpected synthetic id: got=%d want=%d", first, want)
	}
}

func TestDeadlineFor(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2025, 9, 13, 15, 0, 0, 0, time.UTC)
	deadline := DeadlineFor(kickoff)
	if !deadline.Equal(kickoff.Add(-time.Hour)) {
		t.Fatalf("unexpected deadline: got=%s", deadline)
	}
}

func TestBettingOpen(t *testing.T) {
	t.Parallel()

	deadline := time.Date(2025, 9, 13, 14, 0, 0, 0, time.UTC)
	if !BettingOpen(deadline.Add(-time.Second), deadline) {
		t.Fatalf("one second before the deadline must be open")
	}
	if BettingOpen(deadline, deadline) {
		t.Fatalf("the exact deadline instant must be closed")
	}
	if BettingOpen(deadline.Add(time.Second), deadline) {
		t.Fatalf("after the deadline must be closed")
	}
}
