package game

import "slices"

// RankingEntry is one row of the leaderboard shown to the host.
type RankingEntry struct {
	Username      string `json:"username"`
	CorrectCount  int    `json:"correctCount"`
	PositionDelta int    `json:"positionDelta"`
	Colour        string `json:"colour"`
}

// makeRanking sorts players descending by correct count. The sort is stable
// over join order, so ties keep the order players first appeared.
func makeRanking(order []string, players map[string]*playerState) []RankingEntry {
	entries := make([]RankingEntry, 0, len(order))
	for _, name := range order {
		p := players[name]
		entries = append(entries, RankingEntry{
			Username:      name,
			CorrectCount:  p.correctCount,
			PositionDelta: p.positionDelta(),
			Colour:        p.colour,
		})
	}
	slices.SortStableFunc(entries, func(a, b RankingEntry) int {
		return b.CorrectCount - a.CorrectCount
	})
	return entries
}
