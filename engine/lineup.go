package engine

import (
	"sort"

	"github.com/Dosada05/matchday/models"
)

// PlayerProfile is the slice of player data the outcome model needs.
type PlayerProfile struct {
	PlayerID   int64          `json:"player_id"`
	ClubID     int64          `json:"club_id"`
	Name       string         `json:"name"`
	Position   string         `json:"position"`
	Overall    int            `json:"overall"`
	Attributes map[string]int `json:"attributes"`
}

// Attr returns the named attribute or def when it is missing or zero.
func (p PlayerProfile) Attr(name string, def int) int {
	if v, ok := p.Attributes[name]; ok && v > 0 {
		return v
	}
	return def
}

// Side is one club's starting lineup for a match.
type Side struct {
	ClubID    int64           `json:"club_id"`
	Name      string          `json:"name"`
	Players   []PlayerProfile `json:"players"`
	CaptainID int64           `json:"captain_id"`
}

// Complete reports whether the side fields at least size starters.
func (s Side) Complete(size int) bool {
	return len(s.Players) >= size
}

// LineupEntries converts the side into rows for the lineup table.
func (s Side) LineupEntries(matchID int64) []models.LineupEntry {
	entries := make([]models.LineupEntry, 0, len(s.Players))
	for _, p := range s.Players {
		entries = append(entries, models.LineupEntry{
			MatchID:   matchID,
			ClubID:    s.ClubID,
			PlayerID:  p.PlayerID,
			Position:  p.Position,
			IsStarter: true,
			IsCaptain: p.PlayerID == s.CaptainID,
		})
	}
	return entries
}

// AutoLineup picks the size highest-overall players of the squad, ties broken
// by lower player id. The strongest player captains the side.
func AutoLineup(clubID int64, name string, squad []PlayerProfile, size int) Side {
	ranked := make([]PlayerProfile, len(squad))
	copy(ranked, squad)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Overall != ranked[j].Overall {
			return ranked[i].Overall > ranked[j].Overall
		}
		return ranked[i].PlayerID < ranked[j].PlayerID
	})
	if len(ranked) > size {
		ranked = ranked[:size]
	}

	side := Side{ClubID: clubID, Name: name, Players: ranked}
	if len(ranked) > 0 {
		side.CaptainID = ranked[0].PlayerID
	}
	return side
}
