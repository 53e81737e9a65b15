package quota

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/simplelearn-uz/convertbot/internal/config"
	"github.com/simplelearn-uz/convertbot/types"
)

// Unlimited is the daily-limit sentinel: the count check always passes.
const Unlimited = -1

// Engine decides whether a conversion may start and records successful ones.
// The day boundary is the UTC calendar date, never host-local time.
type Engine struct {
	usage types.UsageStore
}

func NewEngine(usage types.UsageStore) *Engine {
	return &Engine{usage: usage}
}

func today(now time.Time) time.Time {
	return now.UTC().Truncate(24 * time.Hour)
}

func sameUTCDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// CanConvert gate-checks one conversion. The size check runs first and is
// independent of the daily count. A stored count from an earlier UTC date
// reads as zero regardless of its value.
func (e *Engine) CanConvert(ctx context.Context, userID int64, limits config.TierLimits, fileSize int64) error {
	if limits.MaxFileBytes > 0 && fileSize > limits.MaxFileBytes {
		return errors.Wrapf(types.ErrFileTooLarge, "%d bytes over %d ceiling", fileSize, limits.MaxFileBytes)
	}
	if limits.DailyConversions == Unlimited {
		return nil
	}

	counters, err := e.usage.GetCounters(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil // no counters row yet means zero conversions
		}
		return err
	}

	count := counters.ConversionsToday
	if !sameUTCDate(counters.LastConversionDate, time.Now()) {
		count = 0
	}
	if count >= limits.DailyConversions {
		return errors.Wrapf(types.ErrQuotaExceeded, "daily limit %d reached", limits.DailyConversions)
	}
	return nil
}

// RecordSuccess bumps the counters after a successful conversion, creating
// the row when missing. The daily count resets on the first success of a new
// UTC date.
func (e *Engine) RecordSuccess(ctx context.Context, userID int64, byteSize int64) error {
	now := time.Now()

	counters, err := e.usage.GetCounters(ctx, userID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			return err
		}
		counters = &types.UsageCounters{UserID: userID}
	}

	if !sameUTCDate(counters.LastConversionDate, now) {
		counters.ConversionsToday = 0
	}
	counters.ConversionsToday++
	counters.TotalConversions++
	counters.TotalBytes += byteSize
	counters.LastConversionDate = today(now)

	return e.usage.PutCounters(ctx, *counters)
}

// Remaining reports how many conversions are left today; Unlimited passes
// through. Used for the result caption footer.
func (e *Engine) Remaining(ctx context.Context, userID int64, limits config.TierLimits) (int, error) {
	if limits.DailyConversions == Unlimited {
		return Unlimited, nil
	}
	counters, err := e.usage.GetCounters(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return limits.DailyConversions, nil
		}
		return 0, err
	}
	count := counters.ConversionsToday
	if !sameUTCDate(counters.LastConversionDate, time.Now()) {
		count = 0
	}
	if count >= limits.DailyConversions {
		return 0, nil
	}
	return limits.DailyConversions - count, nil
}
