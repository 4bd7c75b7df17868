package prices

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchPricesLowercasesKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/8453" {
			t.Errorf("path = %q, want /8453", r.URL.Path)
		}
		w.Write([]byte(`{"0xABCDEF0123": {"price": 1.0001}, "0xdeadbeef": {"price": 2500.5}}`))
	}))
	defer srv.Close()

	c := NewWithBase(srv.URL, srv.Client(), slog.Default())
	quotes := c.FetchPrices(context.Background(), 8453)

	if len(quotes) != 2 {
		t.Fatalf("len = %d, want 2", len(quotes))
	}
	q, ok := quotes["0xabcdef0123"]
	if !ok {
		t.Fatal("expected lower-cased key 0xabcdef0123")
	}
	if q.PriceUSD != 1.0001 {
		t.Errorf("PriceUSD = %v, want 1.0001", q.PriceUSD)
	}
	if q.Address != "0xabcdef0123" {
		t.Errorf("Address = %q, want lower-cased", q.Address)
	}
}

func TestFetchPricesDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[not a map]`))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewWithBase(srv.URL, srv.Client(), slog.Default())
			quotes := c.FetchPrices(context.Background(), 1)
			if quotes == nil {
				t.Fatal("quotes should be an empty map, not nil")
			}
			if len(quotes) != 0 {
				t.Errorf("len = %d, want 0", len(quotes))
			}
		})
	}
}

func TestFetchPricesUnreachableHost(t *testing.T) {
	c := NewWithBase("http://127.0.0.1:1", &http.Client{}, slog.Default())
	quotes := c.FetchPrices(context.Background(), 1)
	if len(quotes) != 0 {
		t.Errorf("len = %d, want 0 on transport failure", len(quotes))
	}
}

func TestFetchAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/1":
			w.Write([]byte(`{"0xaaa": {"price": 10}}`))
		default:
			http.Error(w, "unknown chain", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewWithBase(srv.URL, srv.Client(), slog.Default())
	all := c.FetchAll(context.Background(), []int64{1, 8453})

	if len(all) != 2 {
		t.Fatalf("len = %d, want entries for both chains", len(all))
	}
	if all[1]["0xaaa"].PriceUSD != 10 {
		t.Errorf("chain 1 price = %v, want 10", all[1]["0xaaa"].PriceUSD)
	}
	if len(all[8453]) != 0 {
		t.Errorf("failing chain should degrade to empty map, got %d entries", len(all[8453]))
	}
}
