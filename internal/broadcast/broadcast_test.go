package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplelearn-uz/convertbot/types"
)

type listOnlyUserStore struct {
	ids []int64
}

func (s *listOnlyUserStore) GetUser(context.Context, int64) (*types.User, error) {
	return nil, types.ErrNotFound
}
func (s *listOnlyUserStore) UpsertUser(context.Context, types.User) (bool, error) {
	return false, nil
}
func (s *listOnlyUserStore) UpdateLanguage(context.Context, int64, string) error { return nil }
func (s *listOnlyUserStore) SetSubscription(context.Context, int64, types.Tier, *time.Time) error {
	return nil
}
func (s *listOnlyUserStore) ListUserIDs(context.Context) ([]int64, error) {
	return s.ids, nil
}

type recordingSender struct {
	mu       sync.Mutex
	sent     []int64
	failOn   map[int64]bool
	stall    time.Duration
	inFlight int
	peak     int
	calls    int
	onSend   func(call int)
}

func (r *recordingSender) SendText(_ context.Context, chatID int64, _ string) error {
	r.mu.Lock()
	r.inFlight++
	if r.inFlight > r.peak {
		r.peak = r.inFlight
	}
	r.calls++
	if r.onSend != nil {
		r.onSend(r.calls)
	}
	r.mu.Unlock()

	if r.stall > 0 {
		time.Sleep(r.stall)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--
	if r.failOn[chatID] {
		return errors.New("blocked by user")
	}
	r.sent = append(r.sent, chatID)
	return nil
}

func ids(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i + 1)
	}
	return out
}

func TestSendAll(t *testing.T) {
	sender := &recordingSender{}
	b := New(&listOnlyUserStore{ids: ids(7)}, sender, 3, 0)

	report, err := b.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 7, report.Sent)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, sender.sent, 7)
}

func TestFailuresAreIsolated(t *testing.T) {
	sender := &recordingSender{failOn: map[int64]bool{2: true, 5: true}}
	b := New(&listOnlyUserStore{ids: ids(6)}, sender, 25, 0)

	report, err := b.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 4, report.Sent)
	assert.Equal(t, 2, report.Failed)
	assert.NotContains(t, sender.sent, int64(2))
	assert.NotContains(t, sender.sent, int64(5))
}

func TestBatchDelayBetweenBatches(t *testing.T) {
	sender := &recordingSender{}
	b := New(&listOnlyUserStore{ids: ids(5)}, sender, 2, 30*time.Millisecond)

	start := time.Now()
	report, err := b.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 5, report.Sent)
	// Two batch boundaries (after 2 and after 4) worth of delay.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestBatchSendsConcurrently(t *testing.T) {
	sender := &recordingSender{stall: 20 * time.Millisecond}
	b := New(&listOnlyUserStore{ids: ids(4)}, sender, 4, 0)

	start := time.Now()
	report, err := b.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 4, report.Sent)
	// The whole batch runs in parallel, not one send after another.
	assert.Greater(t, sender.peak, 1)
	assert.Less(t, time.Since(start), 4*20*time.Millisecond)
}

func TestCancelStopsWithPartialReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sender := &recordingSender{}
	sender.onSend = func(call int) {
		if call == 3 {
			cancel()
		}
	}
	b := New(&listOnlyUserStore{ids: ids(50)}, sender, 10, 0)

	report, err := b.Send(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
	// The running batch drains, later batches never start.
	assert.LessOrEqual(t, report.Sent, 10)
}
