package fpl

type bootstrapEnvelope struct {
	Events []eventItem `json:"events"`
	Teams  []teamItem  `json:"teams"`
}

type eventItem struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DeadlineTime string `json:"deadline_time"`
	Finished     bool   `json:"finished"`
	IsPrevious   bool   `json:"is_previous"`
	IsCurrent    bool   `json:"is_current"`
	IsNext       bool   `json:"is_next"`
}

type teamItem struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	ShortName       string `json:"short_name"`
	StrengthOverall int    `json:"strength"`
}

type fixtureItem struct {
	ID                  int64   `json:"id"`
	Event               *int    `json:"event"`
	KickoffTime         *string `json:"kickoff_time"`
	Started             *bool   `json:"started"`
	Minutes             int     `json:"minutes"`
	Finished            bool    `json:"finished"`
	FinishedProvisional bool    `json:"finished_provisional"`
	TeamH               int64   `json:"team_h"`
	TeamA               int64   `json:"team_a"`
	TeamHScore          *int    `json:"team_h_score"`
	TeamAScore          *int    `json:"team_a_score"`
}
