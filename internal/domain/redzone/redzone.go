// Package redzone derives the offensive team, yards-to-endzone and redzone
// flag from a drive-end marker such as "WSH 11".
//
// The abbreviation in a marker names the side whose own territory the ball
// is in, which is the defending side; the offense is the other side and the
// yard line is its distance to the endzone.
package redzone

import (
	"errors"
	"fmt"

	model "github.com/okian/redzone/internal/domain/model"
	normalize "github.com/okian/redzone/internal/domain/normalize"
	teams "github.com/okian/redzone/internal/domain/teams"
)

// Threshold is the yards-to-endzone below which an offense is in the redzone.
const Threshold = 30

// UnknownTeam is reported when the redzone is active but no team resolves.
const UnknownTeam = "unknown"

// Source names what decided the result.
type Source string

const (
	SourceMarker       Source = "marker"
	SourceProviderFlag Source = "provider_flag"
	SourceNone         Source = "none"
)

// Input is what the detector reads for one event.
type Input struct {
	Matchup      teams.Matchup
	DriveEnd     string
	ProviderFlag bool
	Possession   model.Side
}

// Result is the detector output. Team is set only while InRedzone. Err
// explains why the marker could not be used; it is informational.
type Result struct {
	InRedzone bool
	Team      string
	Yards     *int
	Offense   model.Side
	Source    Source
	Err       error
}

// Detect evaluates in. It never returns an indeterminate flag.
func Detect(reg *teams.Registry, in Input) Result {
	fp, err := normalize.ParseFieldPosition(in.DriveEnd)
	if err == nil {
		defending, ok := reg.Side(fp.Abbrev, in.Matchup)
		if ok {
			offense := defending.Opposite()
			yards := fp.YardLine
			r := Result{
				InRedzone: yards < Threshold || in.ProviderFlag,
				Yards:     &yards,
				Offense:   offense,
				Source:    SourceMarker,
			}
			if r.InRedzone {
				r.Team = name(in.Matchup, offense)
			}
			return r
		}
		err = fmt.Errorf("%w: %s", ErrUnknownAbbrev, fp.Abbrev)
	}
	if in.DriveEnd == "" && errors.Is(err, normalize.ErrMalformedMarker) {
		err = nil
	}

	if !in.ProviderFlag {
		return Result{Source: SourceNone, Err: err}
	}
	team := name(in.Matchup, in.Possession)
	if team == "" {
		team = UnknownTeam
	}
	return Result{
		InRedzone: true,
		Team:      team,
		Offense:   in.Possession,
		Source:    SourceProviderFlag,
		Err:       err,
	}
}

func name(m teams.Matchup, s model.Side) string {
	switch s {
	case model.SideHome:
		return m.HomeName
	case model.SideAway:
		return m.AwayName
	default:
		return ""
	}
}
