package registry

import (
	"fmt"
	"math/big"

	"github.com/leemount96/euler-yield-bot/internal/evm"
)

// Slot positions of the fields we extract from the lens getVaultInfoFull
// return struct.
const (
	slotAsset       = 5
	slotName        = 6
	slotSymbol      = 7
	slotDecimals    = 8
	slotTotalAssets = 16
	slotIRMInfo     = 39

	// Within irmInfo: the interest-rate entry array, and within one entry:
	// the supply APY.
	slotIRMRates      = 4
	slotEntrySupply   = 4
	rateEntryWords    = 5
	maxAssetDecimals  = 77 // 10^78 overflows uint256
)

// supplyAPYScale converts the lens's 1e27-based rate into a percentage.
var supplyAPYScale = big.NewFloat(1e25)

// vaultInfo is the decoded subset of the lens struct the pipeline needs.
type vaultInfo struct {
	Name        string
	Symbol      string
	Asset       string
	Decimals    int
	TotalAssets *big.Int
	SupplyAPY   float64
}

// decodeVaultInfo extracts named fields from the ABI-encoded
// getVaultInfoFull return value. Essential fields (name, symbol, asset,
// decimals, total assets) fail the decode; a missing or misshapen
// supply-rate path yields 0 instead.
func decodeVaultInfo(data []byte) (*vaultInfo, error) {
	outer := evm.NewWords(data)
	body, err := outer.Tuple(0)
	if err != nil {
		return nil, fmt.Errorf("vault info tuple: %w", err)
	}

	asset, err := body.Address(slotAsset)
	if err != nil {
		return nil, fmt.Errorf("vault info asset: %w", err)
	}
	name, err := body.String(slotName)
	if err != nil {
		return nil, fmt.Errorf("vault info name: %w", err)
	}
	symbol, err := body.String(slotSymbol)
	if err != nil {
		return nil, fmt.Errorf("vault info symbol: %w", err)
	}
	decimals, err := body.Uint(slotDecimals)
	if err != nil {
		return nil, fmt.Errorf("vault info decimals: %w", err)
	}
	if !decimals.IsInt64() || decimals.Int64() < 0 || decimals.Int64() > maxAssetDecimals {
		return nil, fmt.Errorf("vault info decimals out of range: %s", decimals)
	}
	totalAssets, err := body.Uint(slotTotalAssets)
	if err != nil {
		return nil, fmt.Errorf("vault info total assets: %w", err)
	}

	return &vaultInfo{
		Name:        name,
		Symbol:      symbol,
		Asset:       asset,
		Decimals:    int(decimals.Int64()),
		TotalAssets: totalAssets,
		SupplyAPY:   extractSupplyAPY(body),
	}, nil
}

// extractSupplyAPY walks irmInfo → rate entries → first entry → supply APY.
// Any shape mismatch along the way means the vault has no readable rate and
// defaults to 0.
func extractSupplyAPY(body evm.Words) float64 {
	irm, err := body.Tuple(slotIRMInfo)
	if err != nil {
		return 0
	}
	rates, err := irm.Tuple(slotIRMRates)
	if err != nil {
		return 0
	}

	entry, err := rates.StaticArrayElem(0, rateEntryWords)
	if err != nil {
		// Older lens deployments encode the entries dynamically.
		entry, err = rates.ArrayElem(0)
		if err != nil {
			return 0
		}
	}
	raw, err := entry.Uint(slotEntrySupply)
	if err != nil {
		return 0
	}

	apy, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), supplyAPYScale).Float64()
	return apy
}

// scaleAssets converts a raw on-chain amount to a float scaled by the
// asset's decimals.
func scaleAssets(raw *big.Int, decimals int) float64 {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	out, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), scale).Float64()
	return out
}
