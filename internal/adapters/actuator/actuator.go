// Package actuator drives the downstream channel-tuning device.
package actuator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/redzone/pkg/logger"
	"github.com/okian/redzone/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Actuator switches the device to a target (a channel number or an event id).
type Actuator interface {
	SwitchTo(ctx context.Context, target string) error
}

// HTTPActuator posts {"target": ...} to a remote-control endpoint.
type HTTPActuator struct {
	url    string
	token  string
	client *http.Client
	log    logger.Logger

	mu      sync.Mutex
	current string
}

// Option configures an HTTPActuator.
type Option func(*HTTPActuator)

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(a *HTTPActuator) { a.token = token }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *HTTPActuator) {
		if c != nil {
			a.client = c
		}
	}
}

// NewHTTP creates an HTTPActuator for the given endpoint.
func NewHTTP(url string, opts ...Option) *HTTPActuator {
	a := &HTTPActuator{
		url:    url,
		client: &http.Client{Timeout: defaultTimeout},
		log:    logger.Get().Named("actuator"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type switchRequest struct {
	Target string `json:"target"`
}

// SwitchTo tunes the device. Switching to the target it is already on is a no-op.
func (a *HTTPActuator) SwitchTo(ctx context.Context, target string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if target == a.current {
		metrics.RecordChannelSwitch("noop")
		return nil
	}

	body, err := json.Marshal(switchRequest{Target: target})
	if err != nil {
		return fmt.Errorf("encode switch request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		metrics.RecordChannelSwitch("error")
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		metrics.RecordChannelSwitch("auth_lost")
		a.current = ""
		return fmt.Errorf("%w: status %d", ErrAuthLost, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.RecordChannelSwitch("error")
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	a.current = target
	metrics.RecordChannelSwitch("ok")
	a.log.Info(ctx, "switched", logger.String("target", target))
	return nil
}

// LogActuator only logs switches; it backs dry runs and replays.
type LogActuator struct {
	log logger.Logger

	mu       sync.Mutex
	switches []string
}

// NewLog creates a LogActuator.
func NewLog() *LogActuator {
	return &LogActuator{log: logger.Get().Named("actuator")}
}

// SwitchTo records the target.
func (a *LogActuator) SwitchTo(ctx context.Context, target string) error {
	a.mu.Lock()
	a.switches = append(a.switches, target)
	a.mu.Unlock()

	metrics.RecordChannelSwitch("dry_run")
	a.log.Info(ctx, "dry-run switch", logger.String("target", target))
	return nil
}

// Switches returns every target seen, oldest first.
func (a *LogActuator) Switches() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.switches...)
}
