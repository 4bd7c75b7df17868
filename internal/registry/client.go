package registry

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/leemount96/euler-yield-bot/internal/evm"
	"github.com/leemount96/euler-yield-bot/internal/metrics"
	"github.com/leemount96/euler-yield-bot/internal/ratelimit"
	"github.com/leemount96/euler-yield-bot/internal/yield"
)

// Client enumerates Euler vaults through the factory contract and reads
// full vault state through the lens contract, one chain at a time.
type Client struct {
	chains  map[int64]ChainConfig
	callers map[int64]evm.Caller
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

func New(chains []ChainConfig, limiter *ratelimit.Limiter, logger *slog.Logger) *Client {
	callers := make(map[int64]evm.Caller, len(chains))
	for _, cfg := range chains {
		callers[cfg.ChainID] = evm.NewRPCClient(cfg.RPCURLs...)
	}
	return newClient(chains, callers, limiter, logger)
}

// NewWithCallers injects pre-built callers, used by tests.
func NewWithCallers(chains []ChainConfig, callers map[int64]evm.Caller, limiter *ratelimit.Limiter, logger *slog.Logger) *Client {
	return newClient(chains, callers, limiter, logger)
}

func newClient(chains []ChainConfig, callers map[int64]evm.Caller, limiter *ratelimit.Limiter, logger *slog.Logger) *Client {
	byID := make(map[int64]ChainConfig, len(chains))
	for _, cfg := range chains {
		byID[cfg.ChainID] = cfg
	}
	return &Client{chains: byID, callers: callers, limiter: limiter, logger: logger}
}

// FetchVaults scans every requested chain and returns the combined vault
// records sorted descending by base supply rate. A factory or slice read
// failure aborts the whole scan; individual vault failures are logged and
// skipped.
func (c *Client) FetchVaults(ctx context.Context, chainIDs []int64, minimumTVL float64, prices map[int64]map[string]yield.PriceQuote) ([]yield.VaultRecord, error) {
	var records []yield.VaultRecord
	for _, chainID := range chainIDs {
		chainRecords, err := c.fetchChain(ctx, chainID, minimumTVL, prices[chainID])
		if err != nil {
			return nil, fmt.Errorf("chain %d: %w", chainID, err)
		}
		records = append(records, chainRecords...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SupplyAPY > records[j].SupplyAPY
	})
	return records, nil
}

func (c *Client) fetchChain(ctx context.Context, chainID int64, minimumTVL float64, chainPrices map[string]yield.PriceQuote) ([]yield.VaultRecord, error) {
	cfg, ok := c.chains[chainID]
	if !ok {
		return nil, fmt.Errorf("unsupported chain")
	}
	caller := c.callers[chainID]
	chainLabel := strconv.FormatInt(chainID, 10)

	lenData, err := caller.EthCall(ctx, cfg.Factory, evm.EncodeGetProxyListLength())
	if err != nil {
		return nil, fmt.Errorf("proxy list length: %w", err)
	}
	listSize, err := evm.DecodeUint256(lenData)
	if err != nil {
		return nil, fmt.Errorf("decode proxy list length: %w", err)
	}

	sliceData, err := caller.EthCall(ctx, cfg.Factory, evm.EncodeGetProxyListSlice(big.NewInt(0), listSize))
	if err != nil {
		return nil, fmt.Errorf("proxy list slice: %w", err)
	}
	vaultAddrs, err := evm.DecodeAddressArray(sliceData)
	if err != nil {
		return nil, fmt.Errorf("decode proxy list slice: %w", err)
	}

	c.logger.Info("scanning vaults", "chain_id", chainID, "count", len(vaultAddrs))

	var records []yield.VaultRecord
	for _, vault := range vaultAddrs {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter: %w", err)
			}
		}

		record, err := c.readVault(ctx, caller, cfg.Lens, chainID, vault, chainPrices)
		if err != nil {
			metrics.VaultReadsTotal.WithLabelValues(chainLabel, "error").Inc()
			c.logger.Warn("skipping vault", "chain_id", chainID, "vault", vault, "error", err)
			continue
		}
		metrics.VaultReadsTotal.WithLabelValues(chainLabel, "ok").Inc()

		if minimumTVL > 0 && record.TVLUSD < minimumTVL {
			continue
		}
		records = append(records, *record)
	}
	return records, nil
}

func (c *Client) readVault(ctx context.Context, caller evm.Caller, lens string, chainID int64, vault string, chainPrices map[string]yield.PriceQuote) (*yield.VaultRecord, error) {
	data, err := caller.EthCall(ctx, lens, evm.EncodeGetVaultInfoFull(vault))
	if err != nil {
		return nil, fmt.Errorf("vault info call: %w", err)
	}
	info, err := decodeVaultInfo(data)
	if err != nil {
		return nil, err
	}

	totalAssets := scaleAssets(info.TotalAssets, info.Decimals)
	assetAddr := strings.ToLower(info.Asset)

	var tvlUSD float64
	if quote, ok := chainPrices[assetAddr]; ok {
		tvlUSD = totalAssets * quote.PriceUSD
	}

	return &yield.VaultRecord{
		ChainID:       chainID,
		VaultAddress:  strings.ToLower(vault),
		Name:          info.Name,
		Symbol:        info.Symbol,
		AssetAddress:  assetAddr,
		AssetDecimals: info.Decimals,
		TotalAssets:   totalAssets,
		SupplyAPY:     info.SupplyAPY,
		TVLUSD:        tvlUSD,
	}, nil
}
