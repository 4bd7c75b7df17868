package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/leemount96/euler-yield-bot/internal/store"
)

const defaultRunLimit = 20

// Stats returns recent aggregation runs plus bot counters.
func Stats(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultRunLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		runs, err := s.RecentRuns(r.Context(), limit)
		if err != nil {
			http.Error(w, `{"error":"failed to fetch stats"}`, http.StatusInternalServerError)
			return
		}
		if runs == nil {
			runs = []store.AggregationRun{}
		}

		users, err := s.CountUsers(r.Context())
		if err != nil {
			http.Error(w, `{"error":"failed to fetch stats"}`, http.StatusInternalServerError)
			return
		}
		subscribers, err := s.CountDigestSubscribers(r.Context())
		if err != nil {
			http.Error(w, `{"error":"failed to fetch stats"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"runs":               runs,
			"users":              users,
			"digest_subscribers": subscribers,
		})
	}
}
