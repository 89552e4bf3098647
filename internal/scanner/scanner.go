// Package scanner discovers candidate tokens matching coarse market criteria.
package scanner

import (
	"context"
	"log"
	"time"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/marketdata"
	"solana-signal-engine/internal/solana"
)

// Default scan criteria.
const (
	DefaultChainID       = "solana"
	DefaultMinMarketCap  = 10_000
	DefaultMaxMarketCap  = 1_000_000
	DefaultMaxAgeHours   = 168 // 7 days
	DefaultMaxCandidates = 20
)

// Scanner queries the market-data source across discovery terms and retains
// tokens inside the configured market-cap band and age window.
type Scanner struct {
	client marketdata.Client

	chainID       string
	searchTerms   []string
	minMarketCap  float64
	maxMarketCap  float64
	maxAgeHours   float64
	maxCandidates int
	verbose       bool
	now           func() time.Time
}

// Options contains configuration for creating a Scanner.
type Options struct {
	Client marketdata.Client

	ChainID       string
	SearchTerms   []string
	MinMarketCap  float64
	MaxMarketCap  float64
	MaxAgeHours   float64
	MaxCandidates int
	Verbose       bool
	Now           func() time.Time
}

// New creates a new Scanner. Zero-valued options fall back to defaults.
func New(opts Options) *Scanner {
	s := &Scanner{
		client:        opts.Client,
		chainID:       opts.ChainID,
		searchTerms:   opts.SearchTerms,
		minMarketCap:  opts.MinMarketCap,
		maxMarketCap:  opts.MaxMarketCap,
		maxAgeHours:   opts.MaxAgeHours,
		maxCandidates: opts.MaxCandidates,
		verbose:       opts.Verbose,
		now:           opts.Now,
	}
	if s.chainID == "" {
		s.chainID = DefaultChainID
	}
	if s.minMarketCap <= 0 {
		s.minMarketCap = DefaultMinMarketCap
	}
	if s.maxMarketCap <= 0 {
		s.maxMarketCap = DefaultMaxMarketCap
	}
	if s.maxAgeHours <= 0 {
		s.maxAgeHours = DefaultMaxAgeHours
	}
	if s.maxCandidates <= 0 {
		s.maxCandidates = DefaultMaxCandidates
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Scan queries every discovery term and returns deduplicated candidates,
// first-seen wins, capped at the configured count. A failed query for one
// term is logged and skipped; partial results are expected.
func (s *Scanner) Scan(ctx context.Context) ([]*domain.MarketSnapshot, error) {
	now := s.now()
	seen := make(map[string]bool)
	var candidates []*domain.MarketSnapshot

	for _, term := range s.searchTerms {
		if err := ctx.Err(); err != nil {
			return candidates, err
		}

		results, err := s.client.Search(ctx, term)
		if err != nil {
			log.Printf("[scanner] search %q failed: %v", term, err)
			continue
		}
		s.log("term %q: %d pairs", term, len(results))

		for _, snap := range results {
			if len(candidates) >= s.maxCandidates {
				return candidates, nil
			}
			if !s.matches(snap, now) {
				continue
			}
			if seen[snap.Address] {
				continue
			}
			seen[snap.Address] = true
			candidates = append(candidates, snap)
		}
	}

	return candidates, nil
}

// matches applies the coarse screening criteria to one snapshot.
func (s *Scanner) matches(snap *domain.MarketSnapshot, now time.Time) bool {
	if snap.ChainID != s.chainID {
		return false
	}
	if !solana.ValidAddress(snap.Address) {
		return false
	}
	if snap.MarketCapUSD < s.minMarketCap || snap.MarketCapUSD > s.maxMarketCap {
		return false
	}
	if snap.AgeHours(now) > s.maxAgeHours {
		return false
	}
	return true
}

func (s *Scanner) log(format string, args ...interface{}) {
	if s.verbose {
		log.Printf("[scanner] "+format, args...)
	}
}
