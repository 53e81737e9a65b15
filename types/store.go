package types

import (
	"context"
	"time"
)

// UserStore is the persistent record store for users and their subscription
// fields. Implementations must return ErrNotFound for missing rows.
type UserStore interface {
	GetUser(ctx context.Context, userID int64) (*User, error)
	// UpsertUser reports whether the row was created, i.e. first contact.
	UpsertUser(ctx context.Context, user User) (bool, error)
	UpdateLanguage(ctx context.Context, userID int64, code string) error
	// SetSubscription overwrites tier and expiry in one write.
	SetSubscription(ctx context.Context, userID int64, tier Tier, expiresAt *time.Time) error
	ListUserIDs(ctx context.Context) ([]int64, error)
}

// UsageStore holds per-user counters, mutated only by the quota engine.
type UsageStore interface {
	GetCounters(ctx context.Context, userID int64) (*UsageCounters, error)
	PutCounters(ctx context.Context, c UsageCounters) error
}

type PlanStore interface {
	GetPlan(ctx context.Context, planID int64) (*Plan, error)
	ListActivePlans(ctx context.Context) ([]Plan, error)
}

// PaymentStore persists payment requests. MarkProcessed is a compare-and-set
// on status=pending: it reports false when the request was already resolved,
// so a double approve can never double-apply.
type PaymentStore interface {
	CreatePayment(ctx context.Context, p PaymentRequest) error
	GetPayment(ctx context.Context, id string) (*PaymentRequest, error)
	MarkProcessed(ctx context.Context, id string, status PaymentStatus, adminID int64, note string) (bool, error)
}

// ConversionLog is the append-only conversion history.
type ConversionLog interface {
	InsertRecord(ctx context.Context, r ConversionRecord) error
	RecentRecords(ctx context.Context, limit int) ([]ConversionRecord, error)
}

// StatsReader feeds the admin dashboard; pure read aggregation.
type StatsReader interface {
	Stats(ctx context.Context) (*Stats, error)
}
