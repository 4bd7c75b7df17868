package yield

import (
	"strings"
	"testing"
)

func TestRenderIncentiveMessageEmpty(t *testing.T) {
	got := RenderIncentiveMessage(nil, "🔥 Top 5 DeFi Yield Opportunities 🔥")
	want := "🔥 Top 5 DeFi Yield Opportunities 🔥\n\n"
	if got != want {
		t.Errorf("empty message = %q, want title only", got)
	}
}

func TestRenderIncentiveMessageBlocks(t *testing.T) {
	opps := []IncentiveOpportunity{
		{ChainID: 8453, Name: "Supply USDC", Protocol: "Euler", Action: "LEND", APR: 12.3456, TVL: 1_234_567.89},
		{ChainID: 42, Name: "Borrow ETH", Protocol: "Morpho", Action: "BORROW", APR: 5, TVL: 999},
	}
	got := RenderIncentiveMessage(opps, "title")

	for _, want := range []string{
		"title\n\n",
		"1. Supply USDC\n",
		"   • Chain: Base\n",
		"   • Protocol: Euler\n",
		"   • APR: 12.35%\n",
		"   • TVL: $1,234,567\n",
		"   • Action: LEND\n",
		"2. Borrow ETH\n",
		"   • Chain: 42\n", // unmapped chain renders the raw id
		"   • TVL: $999\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("message missing %q\nfull message:\n%s", want, got)
		}
	}
}

func TestRenderVaultMessage(t *testing.T) {
	opps := []MergedOpportunity{
		{
			VaultRecord: VaultRecord{
				ChainID: 1, Name: "Euler USDC Vault", Symbol: "eUSDC",
				SupplyAPY: 2.5, TVLUSD: 5_000_000,
			},
			IncentiveAPR: 9.5,
			TotalAPR:     12.0,
		},
	}
	got := RenderVaultMessage(opps, "🏦 Top 1 Euler Vault Yields 🏦")

	for _, want := range []string{
		"1. Euler USDC Vault\n",
		"   • Chain: Ethereum\n",
		"   • Vault: eUSDC\n",
		"   • APR: 12.00% (base 2.50% + rewards 9.50%)\n",
		"   • TVL: $5,000,000\n",
		"   • Action: LEND\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("message missing %q\nfull message:\n%s", want, got)
		}
	}
}

func TestRenderVaultMessageEmpty(t *testing.T) {
	got := RenderVaultMessage(nil, "t")
	if got != "t\n\n" {
		t.Errorf("empty message = %q, want title only", got)
	}
}

func TestChainLabel(t *testing.T) {
	tests := []struct {
		id   int64
		want string
	}{
		{1, "Ethereum"},
		{8453, "Base"},
		{1923, "Swell"},
		{10, "10"},
	}
	for _, tt := range tests {
		if got := ChainLabel(tt.id); got != tt.want {
			t.Errorf("ChainLabel(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestGroupThousands(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1234567, "1,234,567"},
		{-1234567, "-1,234,567"},
	}
	for _, tt := range tests {
		if got := groupThousands(tt.input); got != tt.want {
			t.Errorf("groupThousands(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
