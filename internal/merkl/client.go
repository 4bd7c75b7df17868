package merkl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/leemount96/euler-yield-bot/internal/metrics"
	"github.com/leemount96/euler-yield-bot/internal/yield"
)

const defaultAPI = "https://api.merkl.xyz/v4/opportunities"

// merklOpportunity is the wire shape of one Merkl API record.
type merklOpportunity struct {
	ChainID  int64   `json:"chainId"`
	Name     string  `json:"name"`
	Action   string  `json:"action"`
	APR      float64 `json:"apr"`
	TVL      float64 `json:"tvl"`
	Address  string  `json:"address"`
	Protocol *struct {
		Name string `json:"name"`
	} `json:"protocol"`
}

// Client fetches live LEND/BORROW incentive opportunities from the Merkl
// API. The incentive feed is the primary data source: any transport or
// decode failure propagates to the caller, there is no degraded mode.
type Client struct {
	baseURL string
	client  *http.Client

	mu     sync.RWMutex
	latest []yield.IncentiveOpportunity
}

func New() *Client {
	return &Client{
		baseURL: defaultAPI,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithBase returns a client pointed at an alternate API base, used by
// tests.
func NewWithBase(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, client: httpClient}
}

// FetchIncentives fetches LIVE opportunities for the given chains, filtered
// server-side by minimum TVL, and returns them sorted descending by APR.
// Source order is preserved for equal rates.
func (c *Client) FetchIncentives(ctx context.Context, chainIDs []int64, minimumTVL float64) ([]yield.IncentiveOpportunity, error) {
	if len(chainIDs) == 0 {
		return nil, fmt.Errorf("merkl: no chain ids")
	}
	if minimumTVL < 0 {
		return nil, fmt.Errorf("merkl: negative minimum tvl %v", minimumTVL)
	}

	ids := make([]string, len(chainIDs))
	for i, id := range chainIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	params := url.Values{}
	params.Set("chainId", strings.Join(ids, ","))
	params.Set("minimumTvl", strconv.FormatInt(int64(minimumTVL), 10))
	params.Set("status", "LIVE")
	params.Set("action", "LEND,BORROW")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("merkl request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.FetchTotal.WithLabelValues("merkl", "error").Inc()
		return nil, fmt.Errorf("merkl API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.FetchTotal.WithLabelValues("merkl", "error").Inc()
		return nil, fmt.Errorf("merkl API status: %d", resp.StatusCode)
	}

	var raw []merklOpportunity
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		metrics.FetchTotal.WithLabelValues("merkl", "error").Inc()
		return nil, fmt.Errorf("decode merkl: %w", err)
	}
	metrics.FetchTotal.WithLabelValues("merkl", "ok").Inc()

	opps := make([]yield.IncentiveOpportunity, len(raw))
	for i, r := range raw {
		protocol := ""
		if r.Protocol != nil {
			protocol = r.Protocol.Name
		}
		opps[i] = yield.IncentiveOpportunity{
			ChainID:      r.ChainID,
			Name:         r.Name,
			Protocol:     protocol,
			Action:       r.Action,
			APR:          r.APR,
			TVL:          r.TVL,
			VaultAddress: r.Address,
		}
	}

	sort.SliceStable(opps, func(i, j int) bool { return opps[i].APR > opps[j].APR })

	c.mu.Lock()
	c.latest = opps
	c.mu.Unlock()

	return opps, nil
}

// Latest returns the most recently fetched normalized result, for reuse by
// callers in the same process lifetime.
func (c *Client) Latest() []yield.IncentiveOpportunity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]yield.IncentiveOpportunity, len(c.latest))
	copy(out, c.latest)
	return out
}
