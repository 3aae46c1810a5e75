// Package possession resolves which side holds the ball from a normalized
// snapshot using a three-tier fallback chain.
package possession

import (
	"regexp"
	"strings"

	model "github.com/okian/redzone/internal/domain/model"
	teams "github.com/okian/redzone/internal/domain/teams"
)

// Tier names the rule that resolved possession.
type Tier string

const (
	TierPossessionText Tier = "possession_text"
	TierPlayTeam       Tier = "play_team"
	TierPlayText       Tier = "play_text"
	TierNone           Tier = "none"
)

// Input is the subset of a snapshot the resolver reads.
type Input struct {
	Matchup        teams.Matchup
	HomeID         string
	AwayID         string
	PossessionText string
	PlayTeamID     string
	PlayTeamName   string
	PlayText       string
}

// Result is the resolved side and the tier that produced it.
type Result struct {
	Side model.Side
	Tier Tier
}

// InputFrom builds resolver input from a snapshot.
func InputFrom(s model.Snapshot) Input {
	return Input{
		Matchup: teams.Matchup{
			HomeName:   s.HomeTeam,
			AwayName:   s.AwayTeam,
			HomeAbbrev: s.HomeAbbrev,
			AwayAbbrev: s.AwayAbbrev,
		},
		HomeID:         s.HomeID,
		AwayID:         s.AwayID,
		PossessionText: s.PossessionText,
		PlayTeamID:     s.PlayTeamID,
		PlayTeamName:   s.PlayTeamName,
		PlayText:       s.PlayText,
	}
}

// Resolve applies the tiers in order; the first that names exactly one side
// wins. When none does the result is SideNone with TierNone.
func Resolve(reg *teams.Registry, in Input) Result {
	if s, ok := fromPossessionText(reg, in); ok {
		return Result{Side: s, Tier: TierPossessionText}
	}
	if s, ok := fromPlayTeam(in); ok {
		return Result{Side: s, Tier: TierPlayTeam}
	}
	if s, ok := fromPlayText(reg, in); ok {
		return Result{Side: s, Tier: TierPlayText}
	}
	return Result{Side: model.SideNone, Tier: TierNone}
}

func fromPossessionText(reg *teams.Registry, in Input) (model.Side, bool) {
	fields := strings.Fields(in.PossessionText)
	if len(fields) == 0 {
		return model.SideNone, false
	}
	return reg.Side(fields[0], in.Matchup)
}

func fromPlayTeam(in Input) (model.Side, bool) {
	if in.PlayTeamID != "" {
		home := in.PlayTeamID == in.HomeID
		away := in.PlayTeamID == in.AwayID
		if home != away {
			if home {
				return model.SideHome, true
			}
			return model.SideAway, true
		}
	}

	name := strings.ToLower(strings.TrimSpace(in.PlayTeamName))
	if name == "" {
		return model.SideNone, false
	}
	home := contains(in.Matchup.HomeName, name)
	away := contains(in.Matchup.AwayName, name)
	switch {
	case home && !away:
		return model.SideHome, true
	case away && !home:
		return model.SideAway, true
	}
	return model.SideNone, false
}

func contains(display, name string) bool {
	display = strings.ToLower(strings.TrimSpace(display))
	if display == "" {
		return false
	}
	return strings.Contains(display, name) || strings.Contains(name, display)
}

var markerRe = regexp.MustCompile(`\b(?i:to(?: the)?|at)\s+([A-Z]{2,4})\b`)

// fromPlayText reads the last field-position marker in the play text. The
// marker names the defending side's territory, so the ball belongs to the
// other side.
func fromPlayText(reg *teams.Registry, in Input) (model.Side, bool) {
	matches := markerRe.FindAllStringSubmatch(in.PlayText, -1)
	if len(matches) == 0 {
		return model.SideNone, false
	}
	token := matches[len(matches)-1][1]
	defending, ok := reg.Side(token, in.Matchup)
	if !ok {
		return model.SideNone, false
	}
	return defending.Opposite(), true
}
