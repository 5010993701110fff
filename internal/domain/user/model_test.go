package user

import "testing"

func TestStarterTitles(t *testing.T) {
	t.Parallel()

	u := User{Title: StarterTitle, AvailableTitles: StarterTitles()}
	if u.Title != TitleBetaTester {
		t.Fatalf("new users equip %q, got %q", TitleBetaTester, u.Title)
	}
	if !u.HasTitle(TitleNewPlayer) || !u.HasTitle(TitleBetaTester) {
		t.Fatalf("new users unlock both starter titles, got %v", u.AvailableTitles)
	}
	if u.HasTitle("Legend") {
		t.Fatalf("unexpected unlocked title")
	}
}
