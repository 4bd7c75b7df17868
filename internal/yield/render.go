package yield

import (
	"fmt"
	"strconv"
	"strings"
)

// chainLabels maps known chain IDs to display names. Unmapped IDs render
// as the raw numeric id.
var chainLabels = map[int64]string{
	1:    "Ethereum",
	8453: "Base",
	1923: "Swell",
}

// ChainLabel returns the display name for a chain id.
func ChainLabel(chainID int64) string {
	if name, ok := chainLabels[chainID]; ok {
		return name
	}
	return strconv.FormatInt(chainID, 10)
}

// RenderIncentiveMessage formats incentive opportunities as a numbered
// multi-line summary. Deterministic, no I/O. Empty input yields a
// title-only message.
func RenderIncentiveMessage(opps []IncentiveOpportunity, title string) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")

	for i, opp := range opps {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, opp.Name))
		b.WriteString(fmt.Sprintf("   • Chain: %s\n", ChainLabel(opp.ChainID)))
		b.WriteString(fmt.Sprintf("   • Protocol: %s\n", opp.Protocol))
		b.WriteString(fmt.Sprintf("   • APR: %.2f%%\n", opp.APR))
		b.WriteString(fmt.Sprintf("   • TVL: $%s\n", groupThousands(int64(opp.TVL))))
		b.WriteString(fmt.Sprintf("   • Action: %s\n\n", opp.Action))
	}
	return b.String()
}

// RenderVaultMessage formats merged vault opportunities in the same block
// layout, with the total APR broken down into base and incentive parts.
func RenderVaultMessage(opps []MergedOpportunity, title string) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")

	for i, opp := range opps {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, opp.Name))
		b.WriteString(fmt.Sprintf("   • Chain: %s\n", ChainLabel(opp.ChainID)))
		b.WriteString(fmt.Sprintf("   • Vault: %s\n", opp.Symbol))
		b.WriteString(fmt.Sprintf("   • APR: %.2f%% (base %.2f%% + rewards %.2f%%)\n",
			opp.TotalAPR, opp.SupplyAPY, opp.IncentiveAPR))
		b.WriteString(fmt.Sprintf("   • TVL: $%s\n", groupThousands(int64(opp.TVLUSD))))
		b.WriteString("   • Action: LEND\n\n")
	}
	return b.String()
}

// groupThousands renders n with comma separators, truncating toward zero.
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if len(s) > 3 {
		var out []byte
		for i, c := range s {
			if i > 0 && (len(s)-i)%3 == 0 {
				out = append(out, ',')
			}
			out = append(out, byte(c))
		}
		s = string(out)
	}
	if neg {
		return "-" + s
	}
	return s
}
