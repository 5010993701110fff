package match

// FixtureState carries the provider-reported completion state of a fixture.
type FixtureState struct {
	Finished            bool
	FinishedProvisional bool
	HomeScore           *int
	AwayScore           *int
}

// DeriveResult computes the final outcome for a fixture state. A result exists
// only once the provider reports the fixture both finished and provisionally
// confirmed; a finished fixture with missing scores yields no result and the
// caller treats it as a data anomaly, not an error.
func DeriveResult(state FixtureState) (Result, bool) {
	if !state.Finished || !state.FinishedProvisional {
		return "", false
	}
	if state.HomeScore == nil || state.AwayScore == nil {
		return "", false
	}

	switch {
	case *state.HomeScore > *state.AwayScore:
		return ResultHomeWin, true
	case *state.AwayScore > *state.HomeScore:
		return ResultAwayWin, true
	default:
		return ResultDraw, true
	}
}
