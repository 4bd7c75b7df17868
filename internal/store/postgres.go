package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leemount96/euler-yield-bot/internal/yield"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Telegram Users ---

type TelegramUser struct {
	ID         int64     `json:"id"`
	TgChatID   int64     `json:"tg_chat_id"`
	TgUsername string    `json:"tg_username"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Store) UpsertTelegramUser(ctx context.Context, chatID int64, username string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO telegram_users (tg_chat_id, tg_username)
		VALUES ($1, $2)
		ON CONFLICT (tg_chat_id) DO UPDATE SET tg_username = $2`,
		chatID, username)
	return err
}

func (s *Store) GetTelegramUser(ctx context.Context, chatID int64) (*TelegramUser, error) {
	var u TelegramUser
	err := s.pool.QueryRow(ctx, `
		SELECT id, tg_chat_id, tg_username, created_at
		FROM telegram_users WHERE tg_chat_id = $1`, chatID).
		Scan(&u.ID, &u.TgChatID, &u.TgUsername, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CountUsers returns the number of Telegram users that have ever talked
// to the bot.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM telegram_users`).Scan(&count)
	return count, err
}

// --- Digest Subscriptions ---

// SubscribeDigest opts a chat into the daily digest. The user row must
// already exist; callers upsert it on first contact.
func (s *Store) SubscribeDigest(ctx context.Context, chatID int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO digest_subscriptions (tg_user_id)
		SELECT id FROM telegram_users WHERE tg_chat_id = $1
		ON CONFLICT (tg_user_id) DO NOTHING`, chatID)
	return err
}

func (s *Store) UnsubscribeDigest(ctx context.Context, chatID int64) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM digest_subscriptions
		WHERE tg_user_id = (SELECT id FROM telegram_users WHERE tg_chat_id = $1)`, chatID)
	return err
}

func (s *Store) IsSubscribed(ctx context.Context, chatID int64) (bool, error) {
	var subscribed bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM digest_subscriptions d
			JOIN telegram_users u ON u.id = d.tg_user_id
			WHERE u.tg_chat_id = $1)`, chatID).Scan(&subscribed)
	return subscribed, err
}

// DigestChatIDs returns the chat IDs of every digest subscriber.
func (s *Store) DigestChatIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.tg_chat_id
		FROM digest_subscriptions d
		JOIN telegram_users u ON u.id = d.tg_user_id
		ORDER BY u.tg_chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) CountDigestSubscribers(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM digest_subscriptions`).Scan(&count)
	return count, err
}

// --- Aggregation Runs ---

// AggregationRun is one recorded pipeline run, kept for the stats endpoint.
type AggregationRun struct {
	ID             int64     `json:"id"`
	RanAt          time.Time `json:"ran_at"`
	ChainIDs       []int64   `json:"chain_ids"`
	VaultCount     int       `json:"vault_count"`
	IncentiveCount int       `json:"incentive_count"`
	TopTotalAPR    float64   `json:"top_total_apr"`
}

// RecordRun persists one run's statistics. Implements yield.RunSink.
func (s *Store) RecordRun(ctx context.Context, r yield.RunStats) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO aggregation_runs (ran_at, chain_ids, vault_count, incentive_count, top_total_apr)
		VALUES ($1, $2, $3, $4, $5)`,
		r.RanAt, r.ChainIDs, r.VaultCount, r.IncentiveCount, r.TopTotalAPR)
	return err
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]AggregationRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, ran_at, chain_ids, vault_count, incentive_count, top_total_apr
		FROM aggregation_runs
		ORDER BY ran_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []AggregationRun
	for rows.Next() {
		var run AggregationRun
		if err := rows.Scan(&run.ID, &run.RanAt, &run.ChainIDs, &run.VaultCount, &run.IncentiveCount, &run.TopTotalAPR); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// CleanupOldRuns deletes run records older than maxAge.
func (s *Store) CleanupOldRuns(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM aggregation_runs WHERE ran_at < $1`, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Pool exposes the underlying connection pool for use by other packages.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}
