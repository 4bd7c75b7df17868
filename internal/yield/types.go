package yield

// PriceQuote is a single USD price for an asset on one chain.
type PriceQuote struct {
	Address  string  `json:"address"`
	PriceUSD float64 `json:"price"`
}

// IncentiveOpportunity is a normalized incentive-feed record. VaultAddress
// may be empty; such records cannot be joined against vault data.
type IncentiveOpportunity struct {
	ChainID      int64   `json:"chain_id"`
	Name         string  `json:"name"`
	Protocol     string  `json:"protocol"`
	Action       string  `json:"action"`
	APR          float64 `json:"apr"`
	TVL          float64 `json:"tvl"`
	VaultAddress string  `json:"vault_address,omitempty"`
}

// VaultRecord is one vault's on-chain state, with TotalAssets already
// scaled by the asset's decimals and TVLUSD priced via the oracle (0 when
// no price is known).
type VaultRecord struct {
	ChainID       int64   `json:"chain_id"`
	VaultAddress  string  `json:"vault_address"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	AssetAddress  string  `json:"asset_address"`
	AssetDecimals int     `json:"asset_decimals"`
	TotalAssets   float64 `json:"total_assets"`
	SupplyAPY     float64 `json:"supply_apy"`
	TVLUSD        float64 `json:"tvl_usd"`
}

// MergedOpportunity is a vault joined with its incentive rate. Built fresh
// on every aggregation call, never persisted.
type MergedOpportunity struct {
	VaultRecord
	IncentiveAPR float64 `json:"incentive_apr"`
	TotalAPR     float64 `json:"total_apr"`
}
