package types

import "time"

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// User is a bot user. Tier and SubscriptionExpiresAt together decide the
// effective tier: premium counts only while the expiry is strictly in the
// future, expired rows get downgraded lazily on read.
type User struct {
	UserID                int64
	ChatID                int64
	Username              string
	FirstName             string
	LastName              string
	LanguageCode          string
	Tier                  Tier
	SubscriptionExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// UsageCounters is one row per user. ConversionsToday is only meaningful
// together with LastConversionDate: a stored count from an older UTC date
// reads as zero.
type UsageCounters struct {
	UserID             int64
	ConversionsToday   int
	LastConversionDate time.Time // UTC calendar date, zero if never converted
	TotalConversions   int64
	TotalBytes         int64
}

type ConversionStatus string

const (
	ConversionSuccess ConversionStatus = "success"
	ConversionFailed  ConversionStatus = "failed"
)

// ConversionRecord is an immutable log entry, one per attempt.
type ConversionRecord struct {
	ID               int64
	UserID           int64
	OriginalFilename string
	OriginalFormat   string
	TargetFormat     string
	FileSizeBytes    int64
	Status           ConversionStatus
	ErrorMessage     string
	Duration         time.Duration
	CreatedAt        time.Time
}

type Plan struct {
	ID           int64
	Name         string
	Price        int64 // smallest currency unit
	DurationDays int
	Active       bool
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

type PaymentRequest struct {
	ID          string
	UserID      int64
	PlanID      int64
	Amount      int64
	ProofFileID string
	Status      PaymentStatus
	ProcessedBy int64
	ProcessedAt *time.Time
	AdminNote   string
	CreatedAt   time.Time
}

// PendingFile is the transient file reference held in a conversation while
// the user picks a target format.
type PendingFile struct {
	FileID    string `json:"file_id"`
	FileName  string `json:"file_name"`
	FileSize  int64  `json:"file_size"`
	Extension string `json:"extension"`
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	TotalUsers        int64
	PremiumUsers      int64
	TotalConversions  int64
	FailedConversions int64
	ConversionsToday  int64
	PendingPayments   int64
	Revenue           int64
}
