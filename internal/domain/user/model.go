package user

import "time"

const (
	TitleNewPlayer  = "New Player"
	TitleBetaTester = "Beta Tester"
)

// StarterTitle is equipped on account creation.
const StarterTitle = TitleBetaTester

// StarterTitles is the unlocked set granted on account creation. Everyone
// joining while the product is young counts as a beta tester.
func StarterTitles() []string {
	return []string{TitleNewPlayer, TitleBetaTester}
}

// User is a player identified by their stable numeric social id (fid).
type User struct {
	FID             int64
	Username        string
	PfpURL          string
	Title           string
	AvailableTitles []string
	XP              int
	Level           int
	GameweeksPlayed int
	PerfectScores   int
	LastPlayed      *time.Time
	CreatedAt       time.Time
}

// Stats is the profile snapshot shown on the profile frame.
type Stats struct {
	User
	Rank int
}

// HasTitle reports whether the title is in the user's unlocked set.
func (u User) HasTitle(title string) bool {
	for _, item := range u.AvailableTitles {
		if item == title {
			return true
		}
	}
	return false
}
