// Package scoring computes the excitement score of one event.
package scoring

import (
	model "github.com/okian/redzone/internal/domain/model"
)

// Weights of the excitement formula.
const (
	RedzoneBase          = 1000
	RedzoneYardWeight    = 10
	RedzoneYards         = 30
	FourthAndShortBonus  = 500
	FourthAndMediumBonus = 300
	HighScoringThreshold = 40
	HighScoringWeight    = 10
	LateGameMinutes      = 15
	LateGameWeight       = 3

	TimeoutPenalty     = 500
	ScoreChangePenalty = 400
	FourthDownPenalty  = 300
	lateGameQuarter    = 4
	fourthDown         = 4
	fourthAndShortMax  = 1
	fourthAndMediumMax = 3
	secondsPerMinute   = 60.0
)

// closenessTiers are checked in order; the first matching tier applies.
var closenessTiers = []struct {
	maxDiff int
	bonus   float64
}{
	{3, 1000},
	{7, 500},
	{10, 200},
	{14, 50},
}

// Penalty names the commercial-likelihood penalty applied.
type Penalty string

const (
	PenaltyNone        Penalty = ""
	PenaltyTimeout     Penalty = "timeout"
	PenaltyScoreChange Penalty = "score_change"
	PenaltyFourthDown  Penalty = "fourth_down"
)

// Breakdown lists every contribution to a score. Total is the excitement
// score; it may be negative.
type Breakdown struct {
	RedzoneBase      float64 `json:"redzone_base"`
	RedzoneProximity float64 `json:"redzone_proximity"`
	FourthDown       float64 `json:"fourth_down"`
	Closeness        float64 `json:"closeness"`
	HighScoring      float64 `json:"high_scoring"`
	LateGame         float64 `json:"late_game"`
	Penalty          float64 `json:"penalty"`
	PenaltyKind      Penalty `json:"penalty_kind,omitempty"`
	Total            float64 `json:"total"`
}

// Score evaluates e. It is pure and deterministic.
func Score(e model.EventState) Breakdown {
	var b Breakdown

	if e.InRedzone {
		b.RedzoneBase = RedzoneBase
		if e.YardsToEndzone != nil {
			b.RedzoneProximity = float64(max(0, RedzoneYards-*e.YardsToEndzone) * RedzoneYardWeight)
		}
		if isDown(e, fourthDown) && e.Distance != nil {
			switch d := *e.Distance; {
			case d <= fourthAndShortMax:
				b.FourthDown = FourthAndShortBonus
			case d <= fourthAndMediumMax:
				b.FourthDown = FourthAndMediumBonus
			}
		}
	}

	diff := e.ScoreDiff()
	for _, tier := range closenessTiers {
		if diff <= tier.maxDiff {
			b.Closeness = tier.bonus
			break
		}
	}

	if total := e.HomeScore + e.AwayScore; total > HighScoringThreshold {
		b.HighScoring = float64(total * HighScoringWeight)
	}

	if e.Quarter == lateGameQuarter {
		remaining := float64(e.ClockSeconds) / secondsPerMinute
		if remaining <= LateGameMinutes {
			b.LateGame = (LateGameMinutes - remaining) * LateGameWeight
		}
	}

	switch {
	case e.Timeout.Active:
		b.Penalty, b.PenaltyKind = TimeoutPenalty, PenaltyTimeout
	case e.ScoreChange.Active:
		b.Penalty, b.PenaltyKind = ScoreChangePenalty, PenaltyScoreChange
	case isDown(e, fourthDown) && !e.InRedzone:
		b.Penalty, b.PenaltyKind = FourthDownPenalty, PenaltyFourthDown
	}

	b.Total = b.RedzoneBase + b.RedzoneProximity + b.FourthDown + b.Closeness +
		b.HighScoring + b.LateGame - b.Penalty
	return b
}

func isDown(e model.EventState, down int) bool {
	return e.Down != nil && *e.Down == down
}
