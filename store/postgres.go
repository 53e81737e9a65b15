package store

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/simplelearn-uz/convertbot/migrations"
	"github.com/simplelearn-uz/convertbot/types"
)

const queryTimeout = 5 * time.Second

// PostgresStore is the durable store: users, usage counters, plans,
// payment requests and the conversion log all live here.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(strings.TrimSpace(dsn))
	if err != nil {
		return nil, errors.Wrap(err, "parse postgres dsn")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDB(*s.pool.Config().ConnConfig)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	goose.SetBaseFS(migrations.FS)
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	logrus.Info("postgres migrations up to date")
	return nil
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// --- UserStore ---

func (s *PostgresStore) UpsertUser(ctx context.Context, user types.User) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	// xmax = 0 only on freshly inserted rows, so this reports first contact.
	var created bool
	err := s.pool.QueryRow(ctx, `
INSERT INTO users (user_id, chat_id, username, first_name, last_name, language_code)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE SET
  chat_id = EXCLUDED.chat_id,
  username = EXCLUDED.username,
  first_name = EXCLUDED.first_name,
  last_name = EXCLUDED.last_name,
  updated_at = NOW()
RETURNING (xmax = 0)
`, user.UserID, user.ChatID, strings.TrimSpace(user.Username), strings.TrimSpace(user.FirstName), strings.TrimSpace(user.LastName), strings.TrimSpace(user.LanguageCode)).Scan(&created)
	return created, err
}

func (s *PostgresStore) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var u types.User
	err := s.pool.QueryRow(ctx, `
SELECT user_id, chat_id, username, first_name, last_name, language_code, tier, subscription_expires_at, created_at, updated_at
FROM users
WHERE user_id = $1
`, userID).Scan(&u.UserID, &u.ChatID, &u.Username, &u.FirstName, &u.LastName, &u.LanguageCode, &u.Tier, &u.SubscriptionExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(types.ErrNotFound, "user %d", userID)
		}
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) UpdateLanguage(ctx context.Context, userID int64, code string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
UPDATE users SET language_code = $2, updated_at = NOW() WHERE user_id = $1
`, userID, code)
	return err
}

func (s *PostgresStore) SetSubscription(ctx context.Context, userID int64, tier types.Tier, expiresAt *time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	ct, err := s.pool.Exec(ctx, `
UPDATE users SET tier = $2, subscription_expires_at = $3, updated_at = NOW() WHERE user_id = $1
`, userID, tier, expiresAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.Wrapf(types.ErrNotFound, "user %d", userID)
	}
	return nil
}

func (s *PostgresStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, `SELECT user_id FROM users ORDER BY user_id`)
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

// --- UsageStore ---

func (s *PostgresStore) GetCounters(ctx context.Context, userID int64) (*types.UsageCounters, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var c types.UsageCounters
	err := s.pool.QueryRow(ctx, `
SELECT user_id, conversions_today, last_conversion_date, total_conversions, total_bytes
FROM usage_counters
WHERE user_id = $1
`, userID).Scan(&c.UserID, &c.ConversionsToday, &c.LastConversionDate, &c.TotalConversions, &c.TotalBytes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(types.ErrNotFound, "usage counters for user %d", userID)
		}
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) PutCounters(ctx context.Context, c types.UsageCounters) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
INSERT INTO usage_counters (user_id, conversions_today, last_conversion_date, total_conversions, total_bytes)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
  conversions_today = EXCLUDED.conversions_today,
  last_conversion_date = EXCLUDED.last_conversion_date,
  total_conversions = EXCLUDED.total_conversions,
  total_bytes = EXCLUDED.total_bytes;
`, c.UserID, c.ConversionsToday, c.LastConversionDate, c.TotalConversions, c.TotalBytes)
	return err
}

// --- PlanStore ---

func (s *PostgresStore) GetPlan(ctx context.Context, planID int64) (*types.Plan, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var p types.Plan
	err := s.pool.QueryRow(ctx, `
SELECT id, name, price, duration_days, active FROM plans WHERE id = $1
`, planID).Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(types.ErrNotFound, "plan %d", planID)
		}
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) ListActivePlans(ctx context.Context) ([]types.Plan, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, `
SELECT id, name, price, duration_days, active FROM plans WHERE active ORDER BY price
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []types.Plan
	for rows.Next() {
		var p types.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays, &p.Active); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// --- PaymentStore ---

func (s *PostgresStore) CreatePayment(ctx context.Context, p types.PaymentRequest) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
INSERT INTO payment_requests (id, user_id, plan_id, amount, proof_file_id, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, p.ID, p.UserID, p.PlanID, p.Amount, p.ProofFileID, p.Status, p.CreatedAt)
	return err
}

func (s *PostgresStore) GetPayment(ctx context.Context, id string) (*types.PaymentRequest, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var p types.PaymentRequest
	err := s.pool.QueryRow(ctx, `
SELECT id, user_id, plan_id, amount, proof_file_id, status, processed_by, processed_at, admin_note, created_at
FROM payment_requests
WHERE id = $1
`, id).Scan(&p.ID, &p.UserID, &p.PlanID, &p.Amount, &p.ProofFileID, &p.Status, &p.ProcessedBy, &p.ProcessedAt, &p.AdminNote, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(types.ErrNotFound, "payment %s", id)
		}
		return nil, err
	}
	return &p, nil
}

// MarkProcessed flips a pending request to its final status. The WHERE
// clause on status makes the transition one-shot even under racing admins.
func (s *PostgresStore) MarkProcessed(ctx context.Context, id string, status types.PaymentStatus, adminID int64, note string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	ct, err := s.pool.Exec(ctx, `
UPDATE payment_requests
SET status = $2, processed_by = $3, processed_at = NOW(), admin_note = $4
WHERE id = $1 AND status = 'pending'
`, id, status, adminID, note)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// --- ConversionLog ---

func (s *PostgresStore) InsertRecord(ctx context.Context, r types.ConversionRecord) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
INSERT INTO conversion_records (user_id, original_filename, original_format, target_format, file_size_bytes, status, error_message, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`, r.UserID, r.OriginalFilename, r.OriginalFormat, r.TargetFormat, r.FileSizeBytes, r.Status, r.ErrorMessage, r.Duration.Milliseconds(), r.CreatedAt)
	return err
}

func (s *PostgresStore) RecentRecords(ctx context.Context, limit int) ([]types.ConversionRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, `
SELECT id, user_id, original_filename, original_format, target_format, file_size_bytes, status, error_message, duration_ms, created_at
FROM conversion_records
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []types.ConversionRecord
	for rows.Next() {
		var r types.ConversionRecord
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.OriginalFilename, &r.OriginalFormat, &r.TargetFormat, &r.FileSizeBytes, &r.Status, &r.ErrorMessage, &durationMS, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, r)
	}
	return records, rows.Err()
}

// --- StatsReader ---

func (s *PostgresStore) Stats(ctx context.Context) (*types.Stats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var st types.Stats
	err := s.pool.QueryRow(ctx, `
SELECT
  (SELECT COUNT(*) FROM users),
  (SELECT COUNT(*) FROM users WHERE tier = 'premium' AND subscription_expires_at > NOW()),
  (SELECT COUNT(*) FROM conversion_records WHERE status = 'success'),
  (SELECT COUNT(*) FROM conversion_records WHERE status = 'failed'),
  (SELECT COUNT(*) FROM conversion_records WHERE status = 'success' AND created_at >= date_trunc('day', NOW() AT TIME ZONE 'utc')),
  (SELECT COUNT(*) FROM payment_requests WHERE status = 'pending'),
  (SELECT COALESCE(SUM(amount), 0) FROM payment_requests WHERE status = 'approved')
`).Scan(&st.TotalUsers, &st.PremiumUsers, &st.TotalConversions, &st.FailedConversions, &st.ConversionsToday, &st.PendingPayments, &st.Revenue)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
