// Package channels maps event ids to device channels. The map is read from a
// YAML file and reloaded when the file changes.
package channels

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/okian/redzone/pkg/logger"
)

// Entry is the channel assignment of one event. Priority is carried for
// operators and never interpreted by the engine.
type Entry struct {
	EventID  string `yaml:"event_id" json:"event_id"`
	Name     string `yaml:"name" json:"name,omitempty"`
	Channel  string `yaml:"channel" json:"channel"`
	Priority int    `yaml:"priority" json:"priority"`
}

type file struct {
	Games []Entry `yaml:"games"`
}

// Map is a concurrency-safe event to channel map.
type Map struct {
	path string
	log  logger.Logger

	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty map. With no file every event targets itself.
func New() *Map {
	return &Map{entries: map[string]Entry{}, log: logger.Get().Named("channels")}
}

// Load reads the map from path.
func Load(path string) (*Map, error) {
	m := New()
	m.path = path
	if err := m.reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Parse decodes a channel map document.
func Parse(data []byte) (map[string]Entry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}
	out := make(map[string]Entry, len(f.Games))
	for i, g := range f.Games {
		if g.EventID == "" || g.Channel == "" {
			return nil, fmt.Errorf("%w: game %d needs event_id and channel", ErrInvalidMap, i)
		}
		out[g.EventID] = g
	}
	return out, nil
}

func (m *Map) reload() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("read channel map: %w", err)
	}
	entries, err := Parse(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries = entries
	m.mu.Unlock()
	return nil
}

// Target returns the actuator target for an event: its channel when mapped,
// the event id otherwise.
func (m *Map) Target(eventID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[eventID]; ok {
		return e.Channel
	}
	return eventID
}

// Lookup returns the entry of an event.
func (m *Map) Lookup(eventID string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[eventID]
	return e, ok
}

// Entries returns every entry ordered by event id.
func (m *Map) Entries() []Entry {
	m.mu.RLock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out
}

// Watch reloads the map whenever its file is written or replaced, until ctx
// is done. A failed reload keeps the previous map.
func (m *Map) Watch(ctx context.Context) error {
	if m.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch channel map: %w", err)
	}
	defer w.Close()

	// the directory survives editors that save by renaming a temp file over the map
	target := filepath.Clean(m.path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch channel map: %w", err)
	}
	m.log.Info(ctx, "watching channel map", logger.String("path", m.path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := m.reload(); err != nil {
				m.log.Error(ctx, "channel map reload failed, keeping previous", logger.Error(err))
				continue
			}
			m.log.Info(ctx, "channel map reloaded", logger.Int("games", m.Len()))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.log.Error(ctx, "channel map watcher error", logger.Error(err))
		}
	}
}

// Len returns the number of mapped events.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
