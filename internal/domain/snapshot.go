package domain

import "time"

// MarketSnapshot is a normalized point-in-time view of a token's market state,
// as reported by the market-data provider. Immutable once fetched; the engine
// re-fetches a fresh snapshot each cycle and never mutates one in place.
type MarketSnapshot struct {
	Address       string  // contract (mint) address
	Symbol        string  // ticker symbol
	Name          string  // token name
	ChainID       string  // provider chain identifier, e.g. "solana"
	PriceUSD      float64 // latest trade price
	MarketCapUSD  float64 // fully-diluted valuation
	LiquidityUSD  float64 // pooled liquidity
	VolumeH24     float64 // 24h traded volume (USD)
	BuysH24       int     // 24h buy transaction count
	SellsH24      int     // 24h sell transaction count
	PriceChangeH1 float64 // price change %, last hour
	PriceChangeH6 float64 // price change %, last 6 hours
	PriceChange24 float64 // price change %, last 24 hours
	PairCreatedAt int64   // pair creation timestamp, Unix ms (0 = unknown)
	FetchedAt     int64   // snapshot fetch timestamp, Unix ms
}

// AgeHours returns the pair age in hours at time now.
// Returns DefaultAgeHours when the creation timestamp is unknown.
func (s *MarketSnapshot) AgeHours(now time.Time) float64 {
	if s.PairCreatedAt <= 0 {
		return DefaultAgeHours
	}
	created := time.UnixMilli(s.PairCreatedAt)
	age := now.Sub(created).Hours()
	if age < 0 {
		return 0
	}
	return age
}

// DefaultAgeHours is assumed when the provider omits the pair creation time.
const DefaultAgeHours = 24.0

// LiquidityRatio returns liquidity / market cap, or 0 when market cap is unknown.
func (s *MarketSnapshot) LiquidityRatio() float64 {
	if s.MarketCapUSD <= 0 {
		return 0
	}
	return s.LiquidityUSD / s.MarketCapUSD
}

// VolumeRatio returns 24h volume / market cap, or 0 when market cap is unknown.
func (s *MarketSnapshot) VolumeRatio() float64 {
	if s.MarketCapUSD <= 0 {
		return 0
	}
	return s.VolumeH24 / s.MarketCapUSD
}

// BuyPressure returns the fraction of 24h transactions that were buys.
// Returns 0.5 (balanced) when there were no transactions.
func (s *MarketSnapshot) BuyPressure() float64 {
	total := s.BuysH24 + s.SellsH24
	if total == 0 {
		return 0.5
	}
	return float64(s.BuysH24) / float64(total)
}
