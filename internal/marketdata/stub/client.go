// Package stub provides an in-memory marketdata.Client for tests.
package stub

import (
	"context"
	"sync"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/marketdata"
)

// Client is a configurable stub implementation of marketdata.Client.
type Client struct {
	mu        sync.Mutex
	snapshots map[string]*domain.MarketSnapshot
	searches  map[string][]*domain.MarketSnapshot
	failAddrs map[string]bool
	failTerms map[string]bool

	FetchCalls  int
	SearchCalls int
}

// NewClient creates an empty stub client.
func NewClient() *Client {
	return &Client{
		snapshots: make(map[string]*domain.MarketSnapshot),
		searches:  make(map[string][]*domain.MarketSnapshot),
		failAddrs: make(map[string]bool),
		failTerms: make(map[string]bool),
	}
}

// Compile-time interface check.
var _ marketdata.Client = (*Client)(nil)

// SetSnapshot registers the snapshot returned for an address.
func (c *Client) SetSnapshot(s *domain.MarketSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[s.Address] = s
}

// SetSearchResults registers the snapshots returned for a search term.
func (c *Client) SetSearchResults(term string, results []*domain.MarketSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searches[term] = results
}

// FailAddress makes FetchSnapshot return ErrUnavailable for an address.
func (c *Client) FailAddress(address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failAddrs[address] = true
}

// FailTerm makes Search return ErrUnavailable for a term.
func (c *Client) FailTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failTerms[term] = true
}

// FetchSnapshot returns the registered snapshot for address.
func (c *Client) FetchSnapshot(_ context.Context, address string) (*domain.MarketSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.FetchCalls++
	if c.failAddrs[address] {
		return nil, marketdata.ErrUnavailable
	}
	s, ok := c.snapshots[address]
	if !ok {
		return nil, marketdata.ErrUnavailable
	}
	copy := *s
	return &copy, nil
}

// Search returns the registered results for term.
func (c *Client) Search(_ context.Context, term string) ([]*domain.MarketSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.SearchCalls++
	if c.failTerms[term] {
		return nil, marketdata.ErrUnavailable
	}

	results := c.searches[term]
	out := make([]*domain.MarketSnapshot, len(results))
	for i, s := range results {
		copy := *s
		out[i] = &copy
	}
	return out, nil
}
