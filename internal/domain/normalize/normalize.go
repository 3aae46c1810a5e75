// Package normalize converts raw provider payloads into canonical snapshots.
// It never fails: missing sub-fields are reported as absent so the tracker
// keeps the previous value.
package normalize

import (
	"strings"
	"unicode/utf8"

	model "github.com/okian/redzone/internal/domain/model"
)

// MaxPlayText is the number of runes of play text kept on an event.
const MaxPlayText = 100

// Normalize converts p into a Snapshot.
func Normalize(p model.Payload) model.Snapshot {
	s := model.Snapshot{
		EventID:    p.EventID,
		League:     p.League,
		HomeTeam:   strings.TrimSpace(p.Home.Name),
		AwayTeam:   strings.TrimSpace(p.Away.Name),
		HomeAbbrev: strings.ToUpper(strings.TrimSpace(p.Home.Abbrev)),
		AwayAbbrev: strings.ToUpper(strings.TrimSpace(p.Away.Abbrev)),
		HomeID:     p.Home.ID,
		AwayID:     p.Away.ID,
		HomeScore:  nonNegative(p.Home.Score),
		AwayScore:  nonNegative(p.Away.Score),
		Quarter:    nonNegative(p.Period),
	}

	if p.Clock != nil {
		secs := ParseClock(*p.Clock)
		s.ClockSeconds = &secs
	}

	sit := p.Situation
	if sit == nil {
		return s
	}
	s.HasSituation = true

	if sit.PossessionText != nil {
		s.PossessionText = strings.TrimSpace(*sit.PossessionText)
	}
	if sit.IsRedZone != nil {
		s.ProviderRedzone = *sit.IsRedZone
	}
	if sit.DownDistanceText != nil {
		s.HasDownDistance = true
		if dd, ok := ParseDownDistance(*sit.DownDistanceText); ok {
			down, dist := dd.Down, dd.Distance
			s.Down, s.Distance = &down, &dist
		}
	}
	if lp := sit.LastPlay; lp != nil {
		s.HasPlay = true
		s.PlayID = strings.TrimSpace(lp.ID)
		s.PlayText = Truncate(strings.TrimSpace(lp.Text), MaxPlayText)
		s.PlayType = strings.TrimSpace(lp.Type)
		s.PlayTeamID = lp.TeamID
		s.PlayTeamName = strings.TrimSpace(lp.TeamName)
		s.DriveEnd = strings.TrimSpace(lp.DriveEnd)
	}
	return s
}

// Truncate returns at most n runes of text.
func Truncate(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n])
}

func nonNegative(v *int) *int {
	if v == nil || *v < 0 {
		return nil
	}
	out := *v
	return &out
}
