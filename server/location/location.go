package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Options mirror a one-shot position request: a staleness bound for
// cached fixes, a hard timeout & an accuracy hint for the agent.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// Provider yields a single coordinate pair or an error. One-shot, not
// a stream.
type Provider interface {
	Current(ctx context.Context, opts Options) (*Coordinates, error)
}

type fix struct {
	coords Coordinates
	at     time.Time
}

// AgentClient fetches positions from a device location agent over HTTP.
type AgentClient struct {
	agentURL   string
	httpClient *http.Client

	mu      sync.Mutex
	lastFix *fix
}

func NewAgentClient(agentURL string) *AgentClient {
	return &AgentClient{
		agentURL:   agentURL,
		httpClient: &http.Client{},
	}
}

func (ac *AgentClient) Current(ctx context.Context, opts Options) (*Coordinates, error) {
	if coords := ac.cachedFix(opts.MaximumAge); coords != nil {
		return coords, nil
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	url := fmt.Sprintf("%v/position", ac.agentURL)
	if opts.HighAccuracy {
		url += "?accuracy=high"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "location")
	}

	resp, err := ac.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "location")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("location: agent returned %v", resp.StatusCode)
	}

	coords := Coordinates{}
	if err := json.NewDecoder(resp.Body).Decode(&coords); err != nil {
		return nil, errors.Wrap(err, "location")
	}

	ac.mu.Lock()
	ac.lastFix = &fix{coords: coords, at: time.Now()}
	ac.mu.Unlock()

	return &coords, nil
}

func (ac *AgentClient) cachedFix(maximumAge time.Duration) *Coordinates {
	if maximumAge <= 0 {
		return nil
	}

	ac.mu.Lock()
	defer ac.mu.Unlock()

	if ac.lastFix == nil || time.Since(ac.lastFix.at) > maximumAge {
		return nil
	}

	coords := ac.lastFix.coords
	return &coords
}
