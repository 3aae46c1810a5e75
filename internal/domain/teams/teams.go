// Package teams is the data-driven registry of league clubs keyed by their
// official abbreviations.
package teams

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	model "github.com/okian/redzone/internal/domain/model"
)

//go:embed teams.yaml
var builtin []byte

// Team is one club.
type Team struct {
	Abbrev  string   `yaml:"abbrev"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// Registry maps abbreviations (official and alias) to clubs. It is read-only
// after construction and safe for concurrent use.
type Registry struct {
	byAbbrev map[string]Team
}

// Parse builds a registry for one league from YAML data shaped like teams.yaml.
func Parse(data []byte, league string) (*Registry, error) {
	var doc map[string][]Team
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegistry, err)
	}
	list, ok := doc[strings.ToLower(league)]
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%w: no teams for league %q", ErrInvalidRegistry, league)
	}

	r := &Registry{byAbbrev: make(map[string]Team, len(list)*2)}
	for _, t := range list {
		if t.Abbrev == "" || t.Name == "" {
			return nil, fmt.Errorf("%w: team entry missing abbrev or name", ErrInvalidRegistry)
		}
		for _, a := range append([]string{t.Abbrev}, t.Aliases...) {
			key := strings.ToUpper(a)
			if _, dup := r.byAbbrev[key]; dup {
				return nil, fmt.Errorf("%w: duplicate abbreviation %s", ErrInvalidRegistry, key)
			}
			r.byAbbrev[key] = t
		}
	}
	return r, nil
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the embedded NFL registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := Parse(builtin, "nfl")
		if err != nil {
			panic(err)
		}
		defaultReg = r
	})
	return defaultReg
}

// Lookup returns the club for an official or alias abbreviation.
func (r *Registry) Lookup(abbrev string) (Team, bool) {
	t, ok := r.byAbbrev[strings.ToUpper(strings.TrimSpace(abbrev))]
	return t, ok
}

// Len returns the number of distinct abbreviations known.
func (r *Registry) Len() int { return len(r.byAbbrev) }

// Matchup names both sides of one event.
type Matchup struct {
	HomeName   string
	AwayName   string
	HomeAbbrev string
	AwayAbbrev string
}

// Side maps a short team token onto a side of m. Exact abbreviations and the
// registry are tried before the name heuristic. ok is false when the token
// names neither side or both.
func (r *Registry) Side(token string, m Matchup) (model.Side, bool) {
	tok := strings.ToUpper(strings.TrimSpace(token))
	if tok == "" {
		return model.SideNone, false
	}

	if s, ok := pick(r.sameAbbrev(tok, m.HomeAbbrev), r.sameAbbrev(tok, m.AwayAbbrev)); ok {
		return s, true
	}

	if t, known := r.Lookup(tok); known {
		if s, ok := pick(r.isTeam(t, m.HomeName, m.HomeAbbrev), r.isTeam(t, m.AwayName, m.AwayAbbrev)); ok {
			return s, true
		}
	}

	return pick(MatchName(tok, m.HomeName), MatchName(tok, m.AwayName))
}

func (r *Registry) sameAbbrev(tok, abbrev string) bool {
	if abbrev == "" {
		return false
	}
	if strings.EqualFold(tok, abbrev) {
		return true
	}
	a, okA := r.Lookup(tok)
	b, okB := r.Lookup(abbrev)
	return okA && okB && a.Abbrev == b.Abbrev
}

func (r *Registry) isTeam(t Team, name, abbrev string) bool {
	if name != "" && strings.EqualFold(t.Name, name) {
		return true
	}
	if other, ok := r.Lookup(abbrev); ok {
		return other.Abbrev == t.Abbrev
	}
	return false
}

// MatchName reports whether token plausibly names the club called name, by
// initials or a per-word prefix/substring match.
func MatchName(token, name string) bool {
	tok := strings.ToLower(strings.TrimSpace(token))
	if len(tok) < 2 || name == "" {
		return false
	}
	words := strings.Fields(strings.ToLower(name))
	if len(words) > 1 {
		var initials strings.Builder
		for _, w := range words {
			initials.WriteByte(w[0])
		}
		if initials.String() == tok {
			return true
		}
	}
	for _, w := range words {
		if strings.HasPrefix(w, tok) {
			return true
		}
		if len(tok) >= 3 && strings.Contains(w, tok) {
			return true
		}
	}
	return false
}

func pick(home, away bool) (model.Side, bool) {
	switch {
	case home && !away:
		return model.SideHome, true
	case away && !home:
		return model.SideAway, true
	default:
		return model.SideNone, false
	}
}
