// Package model contains domain models passed between layers.
package model

import "time"

// Side identifies one team of an event.
type Side int

const (
	SideNone Side = iota
	SideHome
	SideAway
)

// String returns the lower-case side name used in logs and JSON.
func (s Side) String() string {
	switch s {
	case SideHome:
		return "home"
	case SideAway:
		return "away"
	default:
		return "none"
	}
}

// Opposite returns the other side; SideNone stays SideNone.
func (s Side) Opposite() Side {
	switch s {
	case SideHome:
		return SideAway
	case SideAway:
		return SideHome
	default:
		return SideNone
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Competitor is one side of a raw provider payload.
type Competitor struct {
	ID     string
	Name   string // display name, e.g. "Dallas Cowboys"
	Abbrev string
	Score  *int
}

// Play is the most recent play reported by the provider.
type Play struct {
	ID       string
	Text     string
	Type     string
	TeamID   string
	TeamName string
	DriveEnd string // drive-end marker, e.g. "WSH 11"
}

// Situation carries the live situation block of a payload. Nil pointers mean
// the provider omitted the field.
type Situation struct {
	PossessionText   *string
	DownDistanceText *string
	IsRedZone        *bool
	LastPlay         *Play
}

// Payload is the raw provider payload for one event.
type Payload struct {
	EventID   string
	League    string
	Home      Competitor
	Away      Competitor
	Period    *int
	Clock     *string // display clock, "M:SS"
	Situation *Situation
}

// Snapshot is a normalized payload. Nil pointers and false Has* flags mean
// "keep the previous value".
type Snapshot struct {
	EventID    string
	League     string
	HomeTeam   string
	AwayTeam   string
	HomeAbbrev string
	AwayAbbrev string
	HomeID     string
	AwayID     string

	HomeScore    *int
	AwayScore    *int
	Quarter      *int
	ClockSeconds *int

	HasSituation    bool
	PossessionText  string
	ProviderRedzone bool

	// HasDownDistance is set when the provider sent down/distance text.
	// Down and Distance are nil when that text did not parse.
	HasDownDistance bool
	Down            *int
	Distance        *int

	HasPlay      bool
	PlayID       string
	PlayText     string
	PlayType     string
	PlayTeamID   string
	PlayTeamName string
	DriveEnd     string
}

// Debounce is the state of one transient condition.
type Debounce struct {
	Active   bool      `json:"active"`
	Since    time.Time `json:"since"`
	PlayID   string    `json:"play_id,omitempty"`
	PlayText string    `json:"play_text,omitempty"`
}

// ScoreDebounce is a Debounce that also remembers the score pair it replaced.
type ScoreDebounce struct {
	Debounce
	PrevHome int `json:"prev_home"`
	PrevAway int `json:"prev_away"`
}

// EventState is the tracked state of one live event. Every field is always
// present; optional values use nil pointers. Live reports whether the last
// live list read included the event; Stale whether its last fetch failed.
type EventState struct {
	EventID    string `json:"event_id"`
	League     string `json:"league"`
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	HomeAbbrev string `json:"home_abbrev"`
	AwayAbbrev string `json:"away_abbrev"`
	HomeID     string `json:"home_id"`
	AwayID     string `json:"away_id"`

	HomeScore    int `json:"home_score"`
	AwayScore    int `json:"away_score"`
	Quarter      int `json:"quarter"`
	ClockSeconds int `json:"clock_seconds"`

	Down         *int      `json:"down,omitempty"`
	Distance     *int      `json:"distance,omitempty"`
	LastPlayID   string    `json:"last_play_id,omitempty"`
	LastPlayText string    `json:"last_play_text,omitempty"`
	LastPlayAt   time.Time `json:"last_play_at"`

	Possession     Side   `json:"possession"`
	PossessionTier string `json:"possession_tier"`

	InRedzone      bool      `json:"in_redzone"`
	RedzoneTeam    string    `json:"redzone_team,omitempty"`
	YardsToEndzone *int      `json:"yards_to_endzone,omitempty"`
	LastRedzoneAt  time.Time `json:"last_redzone_at"`

	Timeout     Debounce      `json:"timeout"`
	ScoreChange ScoreDebounce `json:"score_change"`

	Excitement      float64   `json:"excitement"`
	Live            bool      `json:"live"`
	EndOfPeriod     bool      `json:"end_of_period"`
	Stale           bool      `json:"stale"`
	ScoreRegression bool      `json:"score_regression"`
	RefreshedAt     time.Time `json:"refreshed_at"`
}

// ScoreDiff returns the absolute score difference.
func (e EventState) ScoreDiff() int {
	d := e.HomeScore - e.AwayScore
	if d < 0 {
		return -d
	}
	return d
}

// TeamName returns the display name of a side, or "" for SideNone.
func (e EventState) TeamName(s Side) string {
	switch s {
	case SideHome:
		return e.HomeTeam
	case SideAway:
		return e.AwayTeam
	default:
		return ""
	}
}

// ScheduleEntry is one event of a day's schedule.
type ScheduleEntry struct {
	EventID  string    `json:"event_id"`
	Name     string    `json:"name"`
	HomeTeam string    `json:"home_team"`
	AwayTeam string    `json:"away_team"`
	Status   string    `json:"status"`
	Live     bool      `json:"live"`
	Start    time.Time `json:"start"`
}
