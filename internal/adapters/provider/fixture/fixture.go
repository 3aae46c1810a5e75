// Package fixture is a provider.Provider that replays recorded frames from a
// YAML file. Each frame is one polling cycle; Advance moves to the next one.
package fixture

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/redzone/internal/adapters/provider"
	"github.com/okian/redzone/internal/domain/model"
)

// File is the fixture document.
type File struct {
	League   string         `yaml:"league"`
	Schedule []ScheduleItem `yaml:"schedule"`
	Frames   []Frame        `yaml:"frames"`
}

// ScheduleItem is one schedule row.
type ScheduleItem struct {
	EventID  string    `yaml:"event_id"`
	Name     string    `yaml:"name"`
	HomeTeam string    `yaml:"home_team"`
	AwayTeam string    `yaml:"away_team"`
	Status   string    `yaml:"status"`
	Live     bool      `yaml:"live"`
	Start    time.Time `yaml:"start"`
}

// Frame is the provider's view during one cycle. Events listed in Fail
// return provider.ErrUnavailable; ListFail fails the live list itself.
type Frame struct {
	Live     []string         `yaml:"live"`
	Fail     []string         `yaml:"fail"`
	ListFail bool             `yaml:"list_fail"`
	Events   map[string]Event `yaml:"events"`
}

// Event is one recorded payload.
type Event struct {
	Home      Team       `yaml:"home"`
	Away      Team       `yaml:"away"`
	Period    *int       `yaml:"period"`
	Clock     *string    `yaml:"clock"`
	Situation *Situation `yaml:"situation"`
}

// Team is one side of a recorded payload.
type Team struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Abbrev string `yaml:"abbrev"`
	Score  *int   `yaml:"score"`
}

// Situation is a recorded situation block.
type Situation struct {
	Possession   *string `yaml:"possession"`
	DownDistance *string `yaml:"down_distance"`
	RedZone      *bool   `yaml:"red_zone"`
	LastPlay     *Play   `yaml:"last_play"`
}

// Play is a recorded last play.
type Play struct {
	ID       string `yaml:"id"`
	Text     string `yaml:"text"`
	Type     string `yaml:"type"`
	TeamID   string `yaml:"team_id"`
	TeamName string `yaml:"team_name"`
	DriveEnd string `yaml:"drive_end"`
}

// Provider replays a File.
type Provider struct {
	mu    sync.RWMutex
	file  File
	frame int
}

var _ provider.Provider = (*Provider)(nil)

// Load reads a fixture file.
func Load(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes fixture YAML.
func Parse(data []byte) (*Provider, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	if len(f.Frames) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrInvalidFixture)
	}
	if f.League == "" {
		f.League = "nfl"
	}
	return &Provider{file: f}, nil
}

// Advance moves to the next frame and reports whether it did; the last frame
// repeats forever.
func (p *Provider) Advance() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frame+1 >= len(p.file.Frames) {
		return false
	}
	p.frame++
	return true
}

// Frame returns the current frame index.
func (p *Provider) Frame() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.frame
}

// Frames returns the number of frames.
func (p *Provider) Frames() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.file.Frames)
}

func (p *Provider) current() Frame {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.file.Frames[p.frame]
}

// ListLiveEvents returns the current frame's live list.
func (p *Provider) ListLiveEvents(ctx context.Context, league string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	if league != "" && league != p.file.League {
		return nil, fmt.Errorf("%w: %s", provider.ErrUnsupportedLeague, league)
	}
	f := p.current()
	if f.ListFail {
		return nil, fmt.Errorf("%w: scripted list failure", provider.ErrUnavailable)
	}
	return append([]string(nil), f.Live...), nil
}

// GetEventSnapshot returns the recorded payload of an event in the current frame.
func (p *Provider) GetEventSnapshot(ctx context.Context, eventID string) (model.Payload, error) {
	if err := ctx.Err(); err != nil {
		return model.Payload{}, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	f := p.current()
	for _, id := range f.Fail {
		if id == eventID {
			return model.Payload{}, fmt.Errorf("%w: scripted failure for %s", provider.ErrUnavailable, eventID)
		}
	}
	ev, ok := f.Events[eventID]
	if !ok {
		return model.Payload{}, fmt.Errorf("%w: no payload for %s", provider.ErrUnavailable, eventID)
	}
	return ev.payload(eventID, p.file.League), nil
}

// TodaySchedule returns the recorded schedule.
func (p *Provider) TodaySchedule(_ context.Context, league string) ([]model.ScheduleEntry, error) {
	if league != "" && league != p.file.League {
		return nil, fmt.Errorf("%w: %s", provider.ErrUnsupportedLeague, league)
	}
	out := make([]model.ScheduleEntry, 0, len(p.file.Schedule))
	for _, s := range p.file.Schedule {
		out = append(out, model.ScheduleEntry{
			EventID:  s.EventID,
			Name:     s.Name,
			HomeTeam: s.HomeTeam,
			AwayTeam: s.AwayTeam,
			Status:   s.Status,
			Live:     s.Live,
			Start:    s.Start,
		})
	}
	return out, nil
}

func (e Event) payload(id, league string) model.Payload {
	p := model.Payload{
		EventID: id,
		League:  league,
		Home:    model.Competitor(e.Home),
		Away:    model.Competitor(e.Away),
		Period:  e.Period,
		Clock:   e.Clock,
	}
	if s := e.Situation; s != nil {
		p.Situation = &model.Situation{
			PossessionText:   s.Possession,
			DownDistanceText: s.DownDistance,
			IsRedZone:        s.RedZone,
		}
		if lp := s.LastPlay; lp != nil {
			play := model.Play(*lp)
			p.Situation.LastPlay = &play
		}
	}
	return p
}
