package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/leemount96/euler-yield-bot/internal/metrics"
	"github.com/leemount96/euler-yield-bot/internal/yield"
)

const defaultAPI = "https://price-api.euler.finance/prices"

// Client fetches USD asset quotes from the Euler price API. Price data is
// best-effort: failures degrade to an empty map so the pipeline can keep
// going without USD TVL attribution.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func New(logger *slog.Logger) *Client {
	return &Client{
		baseURL: defaultAPI,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// NewWithBase returns a client pointed at an alternate API base, used by
// tests.
func NewWithBase(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{baseURL: baseURL, client: httpClient, logger: logger}
}

// FetchPrices returns the quote map for one chain, keyed by lower-cased
// asset address. One outbound call, no retry; any failure returns an empty
// map.
func (c *Client) FetchPrices(ctx context.Context, chainID int64) map[string]yield.PriceQuote {
	quotes, err := c.fetch(ctx, chainID)
	if err != nil {
		metrics.FetchTotal.WithLabelValues("prices", "error").Inc()
		c.logger.Warn("price fetch failed, continuing without prices", "chain_id", chainID, "error", err)
		return map[string]yield.PriceQuote{}
	}
	metrics.FetchTotal.WithLabelValues("prices", "ok").Inc()
	return quotes
}

// FetchAll fetches quotes for every chain in the set.
func (c *Client) FetchAll(ctx context.Context, chainIDs []int64) map[int64]map[string]yield.PriceQuote {
	out := make(map[int64]map[string]yield.PriceQuote, len(chainIDs))
	for _, id := range chainIDs {
		out[id] = c.FetchPrices(ctx, id)
	}
	return out
}

func (c *Client) fetch(ctx context.Context, chainID int64) (map[string]yield.PriceQuote, error) {
	url := fmt.Sprintf("%s/%d", c.baseURL, chainID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("price request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price API status: %d", resp.StatusCode)
	}

	var raw map[string]struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}

	quotes := make(map[string]yield.PriceQuote, len(raw))
	for addr, q := range raw {
		key := strings.ToLower(addr)
		quotes[key] = yield.PriceQuote{Address: key, PriceUSD: q.Price}
	}
	return quotes, nil
}
