package subscription

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/simplelearn-uz/convertbot/types"
)

// Service owns the premium lifecycle. An expiry in the past is never served:
// TierOf downgrades lazily on read, so no background reaper is needed.
type Service struct {
	users types.UserStore
}

func NewService(users types.UserStore) *Service {
	return &Service{users: users}
}

// TierOf resolves the user's effective tier. An expired premium user is
// downgraded and persisted before the answer is returned, so every later
// read agrees.
func (s *Service) TierOf(ctx context.Context, userID int64) (types.Tier, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return types.TierFree, nil
		}
		return types.TierFree, err
	}
	if user.Tier != types.TierPremium {
		return user.Tier, nil
	}
	// Premium needs an expiry strictly in the future; a row with none set
	// (seeded by hand) is treated the same as an expired one.
	if user.SubscriptionExpiresAt == nil || user.SubscriptionExpiresAt.Before(time.Now()) {
		if err := s.users.SetSubscription(ctx, userID, types.TierFree, nil); err != nil {
			return types.TierFree, errors.Wrap(err, "downgrade expired subscription")
		}
		logrus.WithField("user_id", userID).Info("premium expired, downgraded to free")
		return types.TierFree, nil
	}
	return types.TierPremium, nil
}

// Extend grants durationDays of premium. If the current expiry is still in
// the future the new period stacks on top of it; otherwise it counts from
// now. Returns the new expiry.
func (s *Service) Extend(ctx context.Context, userID int64, durationDays int) (time.Time, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "load user for extension")
	}

	base := time.Now()
	if user.Tier == types.TierPremium && user.SubscriptionExpiresAt != nil && user.SubscriptionExpiresAt.After(base) {
		base = *user.SubscriptionExpiresAt
	}
	expiresAt := base.AddDate(0, 0, durationDays)

	if err := s.users.SetSubscription(ctx, userID, types.TierPremium, &expiresAt); err != nil {
		return time.Time{}, errors.Wrap(err, "persist subscription")
	}
	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"days":       durationDays,
		"expires_at": expiresAt.Format(time.RFC3339),
	}).Info("subscription extended")
	return expiresAt, nil
}

// Downgrade drops the user to free immediately, clearing the expiry.
func (s *Service) Downgrade(ctx context.Context, userID int64) error {
	return s.users.SetSubscription(ctx, userID, types.TierFree, nil)
}
