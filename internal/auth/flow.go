package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vinodismyname/toolgate/config"
)

// ErrUnknownState indicates a callback state that was never issued or has expired.
var ErrUnknownState = errors.New("auth: unknown or expired state")

// ErrNotConfigured indicates the legacy flow lacks a client ID or redirect URI.
var ErrNotConfigured = errors.New("auth: legacy flow not configured")

// ErrTooManyFlows indicates the pending flow limit has been reached.
var ErrTooManyFlows = errors.New("auth: too many pending flows")

// FlowConfig describes the OAuth client used by the legacy flow.
type FlowConfig struct {
	AuthURL      string
	ClientID     string
	RedirectURI  string
	TTL          time.Duration
	CleanupEvery time.Duration
	MaxPending   int
}

// Flow is a pending legacy authorization awaiting its callback.
type Flow struct {
	State     string
	Scopes    []string
	URL       string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// FlowStore keeps pending legacy authorization flows with TTL eviction.
type FlowStore struct {
	cfg       FlowConfig
	mu        sync.Mutex
	flows     map[string]Flow
	clock     func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
	cleanupWG sync.WaitGroup
}

// NewFlowStore constructs a store. Zero TTL or cleanup period fall back to the
// config defaults; clock defaults to time.Now when nil.
func NewFlowStore(cfg FlowConfig, clock func() time.Time) *FlowStore {
	if cfg.TTL <= 0 {
		cfg.TTL = config.DefaultAuthFlowTTL
	}
	if cfg.CleanupEvery <= 0 {
		cfg.CleanupEvery = config.DefaultAuthFlowCleanupPeriod
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = config.DefaultMaxPendingAuthFlows
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = config.DefaultAuthURL
	}
	if clock == nil {
		clock = time.Now
	}
	return &FlowStore{
		cfg:    cfg,
		flows:  make(map[string]Flow),
		clock:  clock,
		stopCh: make(chan struct{}),
	}
}

// Start launches periodic eviction of expired flows.
func (s *FlowStore) Start() {
	s.cleanupWG.Add(1)
	ticker := time.NewTicker(s.cfg.CleanupEvery)
	go func() {
		defer s.cleanupWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.EvictExpired()
			}
		}
	}()
}

// Close stops background cleanup and drops all pending flows.
func (s *FlowStore) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	done := make(chan struct{})
	go func() { s.cleanupWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.flows)
	return nil
}

// Begin issues a new state token and returns the authorization URL the user
// must visit. At the MaxPending limit expired flows are dropped, and
// ErrTooManyFlows is returned if the store is still full.
func (s *FlowStore) Begin(scopes []string) (Flow, error) {
	if strings.TrimSpace(s.cfg.ClientID) == "" || strings.TrimSpace(s.cfg.RedirectURI) == "" {
		return Flow{}, ErrNotConfigured
	}
	u, err := url.Parse(s.cfg.AuthURL)
	if err != nil {
		return Flow{}, fmt.Errorf("auth: parse auth url: %w", err)
	}

	now := s.clock()
	f := Flow{
		State:     uuid.NewString(),
		Scopes:    append([]string(nil), scopes...),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}

	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", s.cfg.ClientID)
	q.Set("redirect_uri", s.cfg.RedirectURI)
	q.Set("scope", strings.Join(scopes, " "))
	q.Set("state", f.State)
	q.Set("access_type", "offline")
	u.RawQuery = q.Encode()
	f.URL = u.String()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.flows) >= s.cfg.MaxPending {
		s.evictLocked(now)
		if len(s.flows) >= s.cfg.MaxPending {
			return Flow{}, ErrTooManyFlows
		}
	}
	s.flows[f.State] = f
	return f, nil
}

// Complete consumes a pending flow. A state can be completed once.
func (s *FlowStore) Complete(state string) (Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[state]
	if !ok {
		return Flow{}, ErrUnknownState
	}
	delete(s.flows, state)
	if !s.clock().Before(f.ExpiresAt) {
		return Flow{}, ErrUnknownState
	}
	return f, nil
}

// Pending returns the number of flows awaiting a callback.
func (s *FlowStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flows)
}

// EvictExpired removes expired flows and returns how many were dropped.
func (s *FlowStore) EvictExpired() int {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked(now)
}

func (s *FlowStore) evictLocked(now time.Time) int {
	n := 0
	for state, f := range s.flows {
		if !now.Before(f.ExpiresAt) {
			delete(s.flows, state)
			n++
		}
	}
	return n
}
