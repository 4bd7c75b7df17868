package cache

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leemount96/euler-yield-bot/internal/yield"
)

var day1 = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestKey(t *testing.T) {
	got := Key(day1, []int64{8453, 1, 1923}, 1_000_000)
	want := "vaults:20260901:1-1923-8453:tvl1000000"
	if got != want {
		t.Errorf("Key = %q, want %q", got, want)
	}

	// Chain order must not change the fingerprint.
	if other := Key(day1, []int64{1923, 8453, 1}, 1_000_000); other != got {
		t.Errorf("Key varies with chain order: %q vs %q", other, got)
	}

	// Parameter changes must change the key.
	if Key(day1, []int64{8453, 1}, 1_000_000) == got {
		t.Error("Key should change with the chain set")
	}
	if Key(day1, []int64{8453, 1, 1923}, 500_000) == got {
		t.Error("Key should change with the minimum TVL")
	}
	if Key(day1.Add(24*time.Hour), []int64{8453, 1, 1923}, 1_000_000) == got {
		t.Error("Key should change with the day")
	}
}

func TestGetOrComputeComputesOnce(t *testing.T) {
	d := NewDaily(NewMemoryStore(), slog.Default())
	d.now = fixedNow(day1)

	vaults := []yield.VaultRecord{{ChainID: 8453, VaultAddress: "0xaaa", SupplyAPY: 2}}
	calls := 0
	compute := func(context.Context) ([]yield.VaultRecord, error) {
		calls++
		return vaults, nil
	}

	got, err := d.GetOrCompute(context.Background(), []int64{8453}, 0, compute)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}

	got, err = d.GetOrCompute(context.Background(), []int64{8453}, 0, compute)
	if err != nil {
		t.Fatalf("second GetOrCompute: %v", err)
	}
	if calls != 1 {
		t.Errorf("compute calls = %d, want 1", calls)
	}
	if got[0].VaultAddress != "0xaaa" || got[0].SupplyAPY != 2 {
		t.Errorf("cached record = %+v, want identical data", got[0])
	}
}

func TestGetOrComputeNewDayRecomputes(t *testing.T) {
	d := NewDaily(NewMemoryStore(), slog.Default())
	d.now = fixedNow(day1)

	calls := 0
	compute := func(context.Context) ([]yield.VaultRecord, error) {
		calls++
		return nil, nil
	}

	if _, err := d.GetOrCompute(context.Background(), []int64{1}, 0, compute); err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	d.now = fixedNow(day1.Add(24 * time.Hour))
	if _, err := d.GetOrCompute(context.Background(), []int64{1}, 0, compute); err != nil {
		t.Fatalf("GetOrCompute next day: %v", err)
	}
	if calls != 2 {
		t.Errorf("compute calls = %d, want recompute on a new day", calls)
	}
}

func TestGetOrComputeParameterChangeIsMiss(t *testing.T) {
	d := NewDaily(NewMemoryStore(), slog.Default())
	d.now = fixedNow(day1)

	calls := 0
	compute := func(context.Context) ([]yield.VaultRecord, error) {
		calls++
		return nil, nil
	}

	if _, err := d.GetOrCompute(context.Background(), []int64{1}, 1_000_000, compute); err != nil {
		t.Fatal(err)
	}
	if _, err := d.GetOrCompute(context.Background(), []int64{1}, 2_000_000, compute); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("compute calls = %d, want a miss for changed parameters", calls)
	}
}

func TestGetOrComputePropagatesComputeError(t *testing.T) {
	d := NewDaily(NewMemoryStore(), slog.Default())
	d.now = fixedNow(day1)

	wantErr := errors.New("scan failed")
	_, err := d.GetOrCompute(context.Background(), []int64{1}, 0, func(context.Context) ([]yield.VaultRecord, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want compute error", err)
	}

	// A failed compute must not poison the cache.
	calls := 0
	_, err = d.GetOrCompute(context.Background(), []int64{1}, 0, func(context.Context) ([]yield.VaultRecord, error) {
		calls++
		return nil, nil
	})
	if err != nil || calls != 1 {
		t.Errorf("(err, calls) = (%v, %d), want retry after failed compute", err, calls)
	}
}

func TestGetWithoutSnapshot(t *testing.T) {
	d := NewDaily(NewMemoryStore(), slog.Default())
	d.now = fixedNow(day1)

	if _, err := d.Get(context.Background(), []int64{1}, 0); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("err = %v, want ErrSnapshotNotFound", err)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	store, err := NewRedisStore("redis://"+mr.Addr(), "")
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.Get(ctx, "vaults:20260901:1:tvl0"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("err = %v, want ErrSnapshotNotFound for absent key", err)
	}

	if err := store.Put(ctx, "vaults:20260901:1:tvl0", []byte(`{"vaults":[]}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	payload, err := store.Get(ctx, "vaults:20260901:1:tvl0")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(payload) != `{"vaults":[]}` {
		t.Errorf("payload = %q", payload)
	}
}

func TestDailyOverRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	store, err := NewRedisStore("redis://"+mr.Addr(), "")
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer store.Close()

	d := NewDaily(store, slog.Default())
	d.now = fixedNow(day1)

	calls := 0
	compute := func(context.Context) ([]yield.VaultRecord, error) {
		calls++
		return []yield.VaultRecord{{ChainID: 1, VaultAddress: "0xabc", Name: "V"}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := d.GetOrCompute(context.Background(), []int64{1}, 0, compute)
		if err != nil {
			t.Fatalf("GetOrCompute #%d: %v", i, err)
		}
		if len(got) != 1 || got[0].Name != "V" {
			t.Fatalf("GetOrCompute #%d = %+v", i, got)
		}
	}
	if calls != 1 {
		t.Errorf("compute calls = %d, want 1 across repeated same-day calls", calls)
	}
}
