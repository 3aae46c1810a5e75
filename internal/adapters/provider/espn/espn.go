// Package espn implements provider.Provider on top of ESPN's public site API
// (scoreboard and game summary endpoints).
package espn

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/redzone/internal/adapters/provider"
	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/pkg/metrics"
)

// Defaults.
const (
	DefaultBaseURL  = "https://site.api.espn.com/apis/site/v2/sports"
	DefaultTimeout  = 10 * time.Second
	DefaultCacheTTL = 5 * time.Second

	stateInProgress = "in"
	dateLayout      = "20060102"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var leaguePaths = map[string]string{
	"nfl":              "football/nfl",
	"college-football": "football/college-football",
}

// Client is an ESPN provider. The scoreboard is shared by list and snapshot
// calls, so it is cached for a short TTL per league.
type Client struct {
	httpClient *http.Client
	baseURL    string
	league     string
	cacheTTL   time.Duration
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]cachedBoard

	// leagueOf remembers which league's scoreboard listed an event.
	leagueOf map[string]string
}

type cachedBoard struct {
	doc scoreboardDoc
	at  time.Time
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithCacheTTL sets how long a scoreboard is reused. Zero disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.cacheTTL = d
		}
	}
}

// WithLeague sets the league whose scoreboard backs snapshot situations.
func WithLeague(league string) Option {
	return func(c *Client) {
		if league != "" {
			c.league = strings.ToLower(league)
		}
	}
}

// WithClock sets the time source used for the cache and today's date.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an ESPN client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		league:     "nfl",
		cacheTTL:   DefaultCacheTTL,
		now:        time.Now,
		cache:      make(map[string]cachedBoard),
		leagueOf:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ provider.Provider = (*Client)(nil)

// ListLiveEvents returns ids of events whose state is "in".
func (c *Client) ListLiveEvents(ctx context.Context, league string) ([]string, error) {
	doc, err := c.scoreboard(ctx, league)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(doc.Events))
	for _, ev := range doc.Events {
		if ev.Status.Type.State == stateInProgress {
			ids = append(ids, ev.ID)
		}
	}
	return ids, nil
}

// GetEventSnapshot combines the game summary (scores, period, clock, teams)
// with the scoreboard situation (last play, drive, possession, redzone flag).
func (c *Client) GetEventSnapshot(ctx context.Context, eventID string) (model.Payload, error) {
	start := c.now()
	defer func() { metrics.RecordProviderLatency(float64(c.now().Sub(start).Milliseconds())) }()

	league := c.eventLeague(eventID)
	path, err := c.leaguePath(league)
	if err != nil {
		return model.Payload{}, err
	}

	var sum summaryDoc
	q := url.Values{"event": {eventID}}
	if err := c.get(ctx, "summary", c.baseURL+"/"+path+"/summary?"+q.Encode(), &sum); err != nil {
		return model.Payload{}, err
	}

	p := model.Payload{EventID: eventID, League: league}
	if len(sum.Header.Competitions) > 0 {
		fillCompetition(&p, sum.Header.Competitions[0])
	}
	if sum.Situation != nil {
		p.Situation = convertSituation(sum.Situation)
	}

	// The scoreboard carries the freshest situation block. A failed
	// scoreboard only loses the situation for this cycle.
	if doc, err := c.scoreboard(ctx, league); err == nil {
		for _, ev := range doc.Events {
			if ev.ID != eventID || len(ev.Competitions) == 0 {
				continue
			}
			comp := ev.Competitions[0]
			if len(sum.Header.Competitions) == 0 {
				fillCompetition(&p, comp)
				fillStatus(&p, ev.Status)
			}
			if comp.Situation != nil {
				p.Situation = convertSituation(comp.Situation)
			}
		}
	}
	return p, nil
}

// TodaySchedule lists today's events for a league.
func (c *Client) TodaySchedule(ctx context.Context, league string) ([]model.ScheduleEntry, error) {
	path, err := c.leaguePath(league)
	if err != nil {
		return nil, err
	}
	q := url.Values{"dates": {c.now().Format(dateLayout)}}
	var doc scoreboardDoc
	if err := c.get(ctx, "schedule", c.baseURL+"/"+path+"/scoreboard?"+q.Encode(), &doc); err != nil {
		return nil, err
	}

	out := make([]model.ScheduleEntry, 0, len(doc.Events))
	for _, ev := range doc.Events {
		e := model.ScheduleEntry{
			EventID: ev.ID,
			Name:    ev.Name,
			Status:  ev.Status.Type.Name,
			Live:    ev.Status.Type.State == stateInProgress,
		}
		if t, err := time.Parse("2006-01-02T15:04Z07:00", ev.Date); err == nil {
			e.Start = t
		} else if t, err := time.Parse(time.RFC3339, ev.Date); err == nil {
			e.Start = t
		}
		if len(ev.Competitions) > 0 {
			for _, cp := range ev.Competitions[0].Competitors {
				if cp.HomeAway == "home" {
					e.HomeTeam = cp.Team.DisplayName
				} else {
					e.AwayTeam = cp.Team.DisplayName
				}
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *Client) scoreboard(ctx context.Context, league string) (scoreboardDoc, error) {
	path, err := c.leaguePath(league)
	if err != nil {
		return scoreboardDoc{}, err
	}

	c.mu.Lock()
	cached, ok := c.cache[path]
	c.mu.Unlock()
	if ok && c.cacheTTL > 0 && c.now().Sub(cached.at) < c.cacheTTL {
		return cached.doc, nil
	}

	var doc scoreboardDoc
	if err := c.get(ctx, "scoreboard", c.baseURL+"/"+path+"/scoreboard", &doc); err != nil {
		return scoreboardDoc{}, err
	}

	league = strings.ToLower(league)
	c.mu.Lock()
	c.cache[path] = cachedBoard{doc: doc, at: c.now()}
	for id, l := range c.leagueOf {
		if l == league {
			delete(c.leagueOf, id)
		}
	}
	for _, ev := range doc.Events {
		c.leagueOf[ev.ID] = league
	}
	c.mu.Unlock()
	return doc, nil
}

// eventLeague returns the league whose scoreboard last listed eventID, or the
// client's default league.
func (c *Client) eventLeague(eventID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.leagueOf[eventID]; ok {
		return l
	}
	return c.league
}

func (c *Client) leaguePath(league string) (string, error) {
	path, ok := leaguePaths[strings.ToLower(league)]
	if !ok {
		return "", fmt.Errorf("%w: %s", provider.ErrUnsupportedLeague, league)
	}
	return path, nil
}

// get fetches u and decodes JSON into out. Every failure is reported as
// provider.ErrUnavailable.
func (c *Client) get(ctx context.Context, op, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		metrics.RecordProviderError(op)
		return fmt.Errorf("%w: %s: %v", provider.ErrUnavailable, op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordProviderError(op)
		return fmt.Errorf("%w: %s: %v", provider.ErrUnavailable, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordProviderError(op)
		return fmt.Errorf("%w: %s: status %d", provider.ErrUnavailable, op, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordProviderError(op)
		return fmt.Errorf("%w: %s: decode: %v", provider.ErrUnavailable, op, err)
	}
	return nil
}

func fillCompetition(p *model.Payload, comp sbCompetition) {
	for _, cp := range comp.Competitors {
		side := model.Competitor{
			ID:     cp.Team.ID,
			Name:   cp.Team.DisplayName,
			Abbrev: cp.Team.Abbreviation,
			Score:  parseScore(cp.Score),
		}
		if side.ID == "" {
			side.ID = cp.ID
		}
		switch cp.HomeAway {
		case "home":
			p.Home = side
		case "away":
			p.Away = side
		}
	}
	if comp.Status != nil {
		fillStatus(p, *comp.Status)
	}
}

func fillStatus(p *model.Payload, st status) {
	period := st.Period
	p.Period = &period
	if st.DisplayClock != "" {
		clock := st.DisplayClock
		p.Clock = &clock
	}
}

func convertSituation(s *situation) *model.Situation {
	out := &model.Situation{
		PossessionText:   s.PossessionText,
		DownDistanceText: s.DownDistanceText,
		IsRedZone:        s.IsRedZone,
	}
	if lp := s.LastPlay; lp != nil {
		play := &model.Play{ID: lp.ID, Text: lp.Text, Type: lp.Type.Text}
		if lp.Team != nil {
			play.TeamID, play.TeamName = lp.Team.ID, lp.Team.DisplayName
		}
		if lp.Drive != nil && lp.Drive.End != nil {
			play.DriveEnd = lp.Drive.End.Text
		}
		out.LastPlay = play
	}
	return out
}

func parseScore(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}
