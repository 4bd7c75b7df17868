package registry

// ChainConfig describes one supported network: where to reach it and which
// factory/lens contracts to read.
type ChainConfig struct {
	ChainID int64    `json:"chain_id"`
	RPCURLs []string `json:"rpc_urls"`
	Factory string   `json:"factory"`
	Lens    string   `json:"lens"`
}

// DefaultChains covers the production deployments on Ethereum, Base and
// Swell.
var DefaultChains = []ChainConfig{
	{
		ChainID: 1,
		RPCURLs: []string{"https://rpc.ankr.com/eth"},
		Factory: "0x29a56a1b8214D9Cf7c5561811750D5cBDb45CC8e",
		Lens:    "0x75AAf54F12784935128306BEe2520de55890a29A",
	},
	{
		ChainID: 8453,
		RPCURLs: []string{"https://rpc.ankr.com/base"},
		Factory: "0x7F321498A801A191a93C840750ed637149dDf8D0",
		Lens:    "0x26c577bF95d3c4AD8155834a0149D6BB76F2D090",
	},
	{
		ChainID: 1923,
		RPCURLs: []string{"https://rpc.ankr.com/swell"},
		Factory: "0x238bF86bb451ec3CA69BB855f91BDA001aB118b9",
		Lens:    "0xe26459a282e11bB7Ca1FDCca251425CD7E7dF3f2",
	},
}

// ChainsFor returns the default configs for the requested chain IDs,
// skipping IDs with no known deployment.
func ChainsFor(ids []int64) []ChainConfig {
	var out []ChainConfig
	for _, id := range ids {
		for _, c := range DefaultChains {
			if c.ChainID == id {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
