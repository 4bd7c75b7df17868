package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/leemount96/euler-yield-bot/internal/yield"
)

const defaultTopN = 5

// Aggregator is the part of the yield pipeline the HTTP layer needs.
type Aggregator interface {
	TopIncentiveOpportunities(ctx context.Context, n int) ([]yield.IncentiveOpportunity, error)
	TopVaultOpportunities(ctx context.Context, n int) ([]yield.MergedOpportunity, error)
	RenderTopIncentiveMessage(ctx context.Context, n int) (string, error)
	RenderTopVaultMessage(ctx context.Context, n int) (string, error)
}

func topN(r *http.Request) int {
	v := r.URL.Query().Get("n")
	if v == "" {
		return defaultTopN
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return defaultTopN
	}
	return n
}

// ListOpportunities returns the top incentive opportunities as JSON.
func ListOpportunities(agg Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opps, err := agg.TopIncentiveOpportunities(r.Context(), topN(r))
		if err != nil {
			http.Error(w, `{"error":"failed to fetch opportunities"}`, http.StatusBadGateway)
			return
		}
		if opps == nil {
			opps = []yield.IncentiveOpportunity{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(opps)
	}
}

// ListVaults returns the top vault opportunities with combined APRs as JSON.
func ListVaults(agg Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vaults, err := agg.TopVaultOpportunities(r.Context(), topN(r))
		if err != nil {
			http.Error(w, `{"error":"failed to fetch vaults"}`, http.StatusBadGateway)
			return
		}
		if vaults == nil {
			vaults = []yield.MergedOpportunity{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(vaults)
	}
}

// YieldsMessage returns the rendered incentive report as plain text.
func YieldsMessage(agg Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg, err := agg.RenderTopIncentiveMessage(r.Context(), topN(r))
		if err != nil {
			http.Error(w, `{"error":"failed to render message"}`, http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(msg))
	}
}

// VaultsMessage returns the rendered vault report as plain text.
func VaultsMessage(agg Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg, err := agg.RenderTopVaultMessage(r.Context(), topN(r))
		if err != nil {
			http.Error(w, `{"error":"failed to render message"}`, http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(msg))
	}
}
