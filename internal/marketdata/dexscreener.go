package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"solana-signal-engine/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.dexscreener.com/latest"
	DefaultTimeout    = 8 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryDelay = 500 * time.Millisecond
)

// DexScreenerClient implements Client against the DexScreener REST API.
type DexScreenerClient struct {
	baseURL    string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	now        func() time.Time
}

// ClientOption configures DexScreenerClient.
type ClientOption func(*DexScreenerClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *DexScreenerClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *DexScreenerClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the delay between retries.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *DexScreenerClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *DexScreenerClient) {
		c.client = client
	}
}

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) ClientOption {
	return func(c *DexScreenerClient) {
		c.baseURL = u
	}
}

// WithClock sets a custom clock function for deterministic snapshots.
func WithClock(now func() time.Time) ClientOption {
	return func(c *DexScreenerClient) {
		c.now = now
	}
}

// NewDexScreenerClient creates a new DexScreener API client.
func NewDexScreenerClient(opts ...ClientOption) *DexScreenerClient {
	c := &DexScreenerClient{
		baseURL:    DefaultBaseURL,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ Client = (*DexScreenerClient)(nil)

// pairPayload mirrors one pair object in a DexScreener response.
type pairPayload struct {
	ChainID   string `json:"chainId"`
	BaseToken struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
		Name    string `json:"name"`
	} `json:"baseToken"`
	PriceUSD  string  `json:"priceUsd"`
	FDV       float64 `json:"fdv"`
	MarketCap float64 `json:"marketCap"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H1  float64 `json:"h1"`
		H6  float64 `json:"h6"`
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Txns struct {
		H24 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	PairCreatedAt int64 `json:"pairCreatedAt"`
}

// pairsResponse is the common envelope of the tokens and search endpoints.
type pairsResponse struct {
	Pairs []pairPayload `json:"pairs"`
}

// FetchSnapshot returns the current snapshot for a contract address, taken
// from the pair with the highest pooled liquidity.
// Returns ErrUnavailable when the source cannot supply it.
func (c *DexScreenerClient) FetchSnapshot(ctx context.Context, address string) (*domain.MarketSnapshot, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: empty address", ErrUnavailable)
	}

	resp, err := c.get(ctx, c.baseURL+"/dex/tokens/"+url.PathEscape(address))
	if err != nil {
		return nil, err
	}
	if len(resp.Pairs) == 0 {
		return nil, fmt.Errorf("%w: no pairs for %s", ErrUnavailable, address)
	}

	best := resp.Pairs[0]
	for _, p := range resp.Pairs[1:] {
		if p.Liquidity.USD > best.Liquidity.USD {
			best = p
		}
	}

	return c.toSnapshot(best), nil
}

// Search returns snapshots for pairs matching a free-text term.
func (c *DexScreenerClient) Search(ctx context.Context, term string) ([]*domain.MarketSnapshot, error) {
	resp, err := c.get(ctx, c.baseURL+"/dex/search?q="+url.QueryEscape(term))
	if err != nil {
		return nil, err
	}

	snapshots := make([]*domain.MarketSnapshot, 0, len(resp.Pairs))
	for _, p := range resp.Pairs {
		snapshots = append(snapshots, c.toSnapshot(p))
	}
	return snapshots, nil
}

// get performs a GET with retries. Transport errors, non-200 statuses, and
// malformed payloads all degrade to ErrUnavailable after retries are spent.
func (c *DexScreenerClient) get(ctx context.Context, rawURL string) (*pairsResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(c.retryDelay):
			}
		}

		resp, err := c.doOnce(ctx, rawURL)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// No point retrying after cancellation.
		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *DexScreenerClient) doOnce(ctx context.Context, rawURL string) (*pairsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var parsed pairsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	return &parsed, nil
}

// toSnapshot converts one pair payload to a domain snapshot.
func (c *DexScreenerClient) toSnapshot(p pairPayload) *domain.MarketSnapshot {
	price, _ := strconv.ParseFloat(p.PriceUSD, 64)

	marketCap := p.FDV
	if marketCap <= 0 {
		marketCap = p.MarketCap
	}

	return &domain.MarketSnapshot{
		Address:       p.BaseToken.Address,
		Symbol:        p.BaseToken.Symbol,
		Name:          p.BaseToken.Name,
		ChainID:       p.ChainID,
		PriceUSD:      price,
		MarketCapUSD:  marketCap,
		LiquidityUSD:  p.Liquidity.USD,
		VolumeH24:     p.Volume.H24,
		BuysH24:       p.Txns.H24.Buys,
		SellsH24:      p.Txns.H24.Sells,
		PriceChangeH1: p.PriceChange.H1,
		PriceChangeH6: p.PriceChange.H6,
		PriceChange24: p.PriceChange.H24,
		PairCreatedAt: p.PairCreatedAt,
		FetchedAt:     c.now().UnixMilli(),
	}
}
