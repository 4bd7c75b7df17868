package yield

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

// IncentiveFeed fetches live incentive opportunities for a set of chains.
type IncentiveFeed interface {
	FetchIncentives(ctx context.Context, chainIDs []int64, minimumTVL float64) ([]IncentiveOpportunity, error)
}

// PriceSource fetches USD quotes per chain. It never fails: unreachable or
// malformed price data degrades to empty maps.
type PriceSource interface {
	FetchAll(ctx context.Context, chainIDs []int64) map[int64]map[string]PriceQuote
}

// VaultRegistry enumerates vaults on-chain and returns their records.
type VaultRegistry interface {
	FetchVaults(ctx context.Context, chainIDs []int64, minimumTVL float64, prices map[int64]map[string]PriceQuote) ([]VaultRecord, error)
}

// SnapshotCache returns the current day's vault snapshot, invoking compute
// only when no snapshot exists yet for today's key.
type SnapshotCache interface {
	GetOrCompute(ctx context.Context, chainIDs []int64, minimumTVL float64, compute func(context.Context) ([]VaultRecord, error)) ([]VaultRecord, error)
}

// RunStats summarizes one completed aggregation run.
type RunStats struct {
	RanAt          time.Time
	ChainIDs       []int64
	VaultCount     int
	IncentiveCount int
	TopTotalAPR    float64
}

// RunSink records aggregation runs, e.g. for a stats endpoint.
type RunSink interface {
	RecordRun(ctx context.Context, r RunStats) error
}

// Aggregator joins the incentive feed with the on-chain vault registry and
// ranks the combined yields. Construct one per process (or per scheduled
// refresh) and pass it to callers explicitly.
type Aggregator struct {
	feed       IncentiveFeed
	prices     PriceSource
	registry   VaultRegistry
	cache      SnapshotCache
	runs       RunSink
	chainIDs   []int64
	minimumTVL float64
	logger     *slog.Logger
}

func NewAggregator(feed IncentiveFeed, prices PriceSource, registry VaultRegistry, cache SnapshotCache, chainIDs []int64, minimumTVL float64, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		feed:       feed,
		prices:     prices,
		registry:   registry,
		cache:      cache,
		chainIDs:   chainIDs,
		minimumTVL: minimumTVL,
		logger:     logger,
	}
}

// WithRunSink attaches an optional sink that receives per-run statistics.
func (a *Aggregator) WithRunSink(s RunSink) *Aggregator {
	a.runs = s
	return a
}

// TopIncentiveOpportunities returns the first n incentive opportunities,
// already sorted descending by APR by the feed client.
func (a *Aggregator) TopIncentiveOpportunities(ctx context.Context, n int) ([]IncentiveOpportunity, error) {
	opps, err := a.feed.FetchIncentives(ctx, a.chainIDs, a.minimumTVL)
	if err != nil {
		return nil, fmt.Errorf("fetch incentives: %w", err)
	}
	if n > len(opps) {
		n = len(opps)
	}
	return opps[:n], nil
}

// TopVaultOpportunities joins today's vault snapshot with a fresh incentive
// fetch and returns the first n merged records sorted descending by total
// APR. Ties keep the registry's prior order.
func (a *Aggregator) TopVaultOpportunities(ctx context.Context, n int) ([]MergedOpportunity, error) {
	vaults, err := a.vaultRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch vaults: %w", err)
	}

	incentives, err := a.feed.FetchIncentives(ctx, a.chainIDs, a.minimumTVL)
	if err != nil {
		return nil, fmt.Errorf("fetch incentives: %w", err)
	}

	merged := Merge(vaults, incentives)
	a.recordRun(ctx, len(vaults), len(incentives), merged)

	if n > len(merged) {
		n = len(merged)
	}
	return merged[:n], nil
}

// Merge attaches incentive rates to vault records by case-insensitive
// address match within the same chain. Incentive records without a vault
// address never join; duplicate addresses are last-write-wins in feed
// order. The result is sorted descending by total APR (stable).
func Merge(vaults []VaultRecord, incentives []IncentiveOpportunity) []MergedOpportunity {
	lookup := make(map[string]float64, len(incentives))
	for _, inc := range incentives {
		if inc.VaultAddress == "" {
			continue
		}
		lookup[joinKey(inc.ChainID, inc.VaultAddress)] = inc.APR
	}

	merged := make([]MergedOpportunity, 0, len(vaults))
	for _, v := range vaults {
		incAPR := lookup[joinKey(v.ChainID, v.VaultAddress)]
		merged = append(merged, MergedOpportunity{
			VaultRecord:  v,
			IncentiveAPR: incAPR,
			TotalAPR:     v.SupplyAPY + incAPR,
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TotalAPR > merged[j].TotalAPR
	})
	return merged
}

func joinKey(chainID int64, addr string) string {
	return strconv.FormatInt(chainID, 10) + ":" + strings.ToLower(addr)
}

func (a *Aggregator) vaultRecords(ctx context.Context) ([]VaultRecord, error) {
	return a.cache.GetOrCompute(ctx, a.chainIDs, a.minimumTVL, func(ctx context.Context) ([]VaultRecord, error) {
		prices := a.prices.FetchAll(ctx, a.chainIDs)
		return a.registry.FetchVaults(ctx, a.chainIDs, a.minimumTVL, prices)
	})
}

func (a *Aggregator) recordRun(ctx context.Context, vaultCount, incentiveCount int, merged []MergedOpportunity) {
	if a.runs == nil {
		return
	}
	var top float64
	if len(merged) > 0 {
		top = merged[0].TotalAPR
	}
	stats := RunStats{
		RanAt:          time.Now(),
		ChainIDs:       a.chainIDs,
		VaultCount:     vaultCount,
		IncentiveCount: incentiveCount,
		TopTotalAPR:    top,
	}
	if err := a.runs.RecordRun(ctx, stats); err != nil {
		a.logger.Warn("record run failed", "error", err)
	}
}

// RenderTopIncentiveMessage fetches and formats the top n incentive
// opportunities. This is one of the two entry points the bot layer calls.
func (a *Aggregator) RenderTopIncentiveMessage(ctx context.Context, n int) (string, error) {
	opps, err := a.TopIncentiveOpportunities(ctx, n)
	if err != nil {
		return "", err
	}
	title := fmt.Sprintf("🔥 Top %d DeFi Yield Opportunities 🔥", n)
	return RenderIncentiveMessage(opps, title), nil
}

// RenderTopVaultMessage fetches and formats the top n merged vault yields.
func (a *Aggregator) RenderTopVaultMessage(ctx context.Context, n int) (string, error) {
	opps, err := a.TopVaultOpportunities(ctx, n)
	if err != nil {
		return "", err
	}
	title := fmt.Sprintf("🏦 Top %d Euler Vault Yields 🏦", n)
	return RenderVaultMessage(opps, title), nil
}
