package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplelearn-uz/convertbot/types"
)

type memUserStore struct {
	users map[int64]types.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[int64]types.User{}}
}

func (s *memUserStore) GetUser(_ context.Context, userID int64) (*types.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, errors.Wrap(types.ErrNotFound, "user")
	}
	return &u, nil
}

func (s *memUserStore) UpsertUser(_ context.Context, user types.User) (bool, error) {
	_, existed := s.users[user.UserID]
	s.users[user.UserID] = user
	return !existed, nil
}

func (s *memUserStore) UpdateLanguage(_ context.Context, userID int64, lang string) error {
	u := s.users[userID]
	u.LanguageCode = lang
	s.users[userID] = u
	return nil
}

func (s *memUserStore) SetSubscription(_ context.Context, userID int64, tier types.Tier, expiresAt *time.Time) error {
	u, ok := s.users[userID]
	if !ok {
		return errors.Wrap(types.ErrNotFound, "user")
	}
	u.Tier = tier
	u.SubscriptionExpiresAt = expiresAt
	s.users[userID] = u
	return nil
}

func (s *memUserStore) ListUserIDs(_ context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func seedUser(store *memUserStore, tier types.Tier, expiresAt *time.Time) {
	store.users[1] = types.User{UserID: 1, ChatID: 1, Tier: tier, SubscriptionExpiresAt: expiresAt}
}

func TestTierOfUnknownUserIsFree(t *testing.T) {
	svc := NewService(newMemUserStore())

	tier, err := svc.TierOf(context.Background(), 404)
	require.NoError(t, err)
	assert.Equal(t, types.TierFree, tier)
}

func TestTierOfActivePremium(t *testing.T) {
	store := newMemUserStore()
	expires := time.Now().Add(24 * time.Hour)
	seedUser(store, types.TierPremium, &expires)
	svc := NewService(store)

	tier, err := svc.TierOf(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, types.TierPremium, tier)
}

func TestTierOfExpiredPremiumDowngradesAndPersists(t *testing.T) {
	store := newMemUserStore()
	expires := time.Now().Add(-time.Hour)
	seedUser(store, types.TierPremium, &expires)
	svc := NewService(store)

	tier, err := svc.TierOf(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, types.TierFree, tier)

	stored := store.users[1]
	assert.Equal(t, types.TierFree, stored.Tier)
	assert.Nil(t, stored.SubscriptionExpiresAt)
}

func TestTierOfPremiumWithoutExpiryDowngrades(t *testing.T) {
	store := newMemUserStore()
	seedUser(store, types.TierPremium, nil)
	svc := NewService(store)

	tier, err := svc.TierOf(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, types.TierFree, tier)
	assert.Equal(t, types.TierFree, store.users[1].Tier)
}

func TestExtendFromNowForFreeUser(t *testing.T) {
	store := newMemUserStore()
	seedUser(store, types.TierFree, nil)
	svc := NewService(store)

	before := time.Now()
	expiresAt, err := svc.Extend(context.Background(), 1, 30)
	require.NoError(t, err)

	assert.WithinDuration(t, before.AddDate(0, 0, 30), expiresAt, time.Minute)
	assert.Equal(t, types.TierPremium, store.users[1].Tier)
}

func TestExtendStacksOnFutureExpiry(t *testing.T) {
	store := newMemUserStore()
	current := time.Now().Add(10 * 24 * time.Hour)
	seedUser(store, types.TierPremium, &current)
	svc := NewService(store)

	expiresAt, err := svc.Extend(context.Background(), 1, 30)
	require.NoError(t, err)

	assert.WithinDuration(t, current.AddDate(0, 0, 30), expiresAt, time.Second)
}

func TestExtendLapsedPremiumCountsFromNow(t *testing.T) {
	store := newMemUserStore()
	lapsed := time.Now().Add(-48 * time.Hour)
	seedUser(store, types.TierPremium, &lapsed)
	svc := NewService(store)

	before := time.Now()
	expiresAt, err := svc.Extend(context.Background(), 1, 7)
	require.NoError(t, err)

	assert.WithinDuration(t, before.AddDate(0, 0, 7), expiresAt, time.Minute)
}

func TestDowngrade(t *testing.T) {
	store := newMemUserStore()
	expires := time.Now().Add(time.Hour)
	seedUser(store, types.TierPremium, &expires)
	svc := NewService(store)

	require.NoError(t, svc.Downgrade(context.Background(), 1))
	assert.Equal(t, types.TierFree, store.users[1].Tier)
	assert.Nil(t, store.users[1].SubscriptionExpiresAt)
}
