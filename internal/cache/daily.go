package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/leemount96/euler-yield-bot/internal/metrics"
	"github.com/leemount96/euler-yield-bot/internal/yield"
)

// ErrSnapshotNotFound is returned when no snapshot exists for the requested
// day and no compute path was supplied.
var ErrSnapshotNotFound = errors.New("cache: snapshot not found")

// Store persists opaque snapshot payloads by key. Get returns
// ErrSnapshotNotFound for absent keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, payload []byte) error
}

// snapshot is the stored payload: the registry result plus when it was
// written. Snapshots are written once and never mutated; the next day's
// key supersedes them.
type snapshot struct {
	WrittenAt time.Time           `json:"written_at"`
	Vaults    []yield.VaultRecord `json:"vaults"`
}

// Daily caches the vault registry result per calendar day. The key carries
// a fingerprint of the scan parameters, so a changed chain set or TVL floor
// is a miss rather than silent reuse of mismatched data.
type Daily struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

func NewDaily(store Store, logger *slog.Logger) *Daily {
	return &Daily{store: store, logger: logger, now: time.Now}
}

// Key builds the snapshot key for a day and parameter set. The chain set is
// sorted so ordering does not change the fingerprint.
func Key(day time.Time, chainIDs []int64, minimumTVL float64) string {
	ids := make([]int64, len(chainIDs))
	copy(ids, chainIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("vaults:%s:%s:tvl%d", day.Format("20060102"), strings.Join(parts, "-"), int64(minimumTVL))
}

// GetOrCompute returns today's snapshot, invoking compute only when none
// exists yet. The mutex makes concurrent same-day callers compute at most
// once per process.
func (d *Daily) GetOrCompute(ctx context.Context, chainIDs []int64, minimumTVL float64, compute func(context.Context) ([]yield.VaultRecord, error)) ([]yield.VaultRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := Key(d.now(), chainIDs, minimumTVL)
	if vaults, err := d.load(ctx, key); err == nil {
		metrics.SnapshotCacheHits.Inc()
		return vaults, nil
	} else if !errors.Is(err, ErrSnapshotNotFound) {
		d.logger.Warn("snapshot load failed, recomputing", "key", key, "error", err)
	}
	metrics.SnapshotCacheMisses.Inc()

	vaults, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(snapshot{WrittenAt: d.now(), Vaults: vaults})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := d.store.Put(ctx, key, payload); err != nil {
		// The computed result is still good; only the reuse path is lost.
		d.logger.Warn("snapshot write failed", "key", key, "error", err)
	}
	return vaults, nil
}

// Get returns today's snapshot or ErrSnapshotNotFound, never computing.
func (d *Daily) Get(ctx context.Context, chainIDs []int64, minimumTVL float64) ([]yield.VaultRecord, error) {
	return d.load(ctx, Key(d.now(), chainIDs, minimumTVL))
}

func (d *Daily) load(ctx context.Context, key string) ([]yield.VaultRecord, error) {
	payload, err := d.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap.Vaults, nil
}
