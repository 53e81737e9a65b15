package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/simplelearn-uz/convertbot/internal/metrics"
	"github.com/simplelearn-uz/convertbot/types"
)

// Sender delivers one message to one chat. The bot adapter in main satisfies
// this; tests plug in a recorder.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Report tallies a finished broadcast.
type Report struct {
	Sent   int
	Failed int
}

// Broadcaster fans a message out to every known user in fixed-size batches
// with a pause between batches, staying under the Telegram send rate. One
// failed recipient never stops the run.
type Broadcaster struct {
	users     types.UserStore
	sender    Sender
	batchSize int
	delay     time.Duration
}

func New(users types.UserStore, sender Sender, batchSize int, delay time.Duration) *Broadcaster {
	if batchSize <= 0 {
		batchSize = 25
	}
	return &Broadcaster{users: users, sender: sender, batchSize: batchSize, delay: delay}
}

// Send delivers text to all users, each batch concurrently. Cancelling the
// context stops at the next batch boundary; the partial report is still
// returned.
func (b *Broadcaster) Send(ctx context.Context, text string) (Report, error) {
	var report Report

	ids, err := b.users.ListUserIDs(ctx)
	if err != nil {
		return report, err
	}

	var mu sync.Mutex
	for start := 0; start < len(ids); start += b.batchSize {
		if start > 0 {
			select {
			case <-time.After(b.delay):
			case <-ctx.Done():
			}
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		end := start + b.batchSize
		if end > len(ids) {
			end = len(ids)
		}

		var wg sync.WaitGroup
		for _, id := range ids[start:end] {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				err := b.sender.SendText(ctx, id, text)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					report.Failed++
					metrics.BroadcastMessagesTotal.WithLabelValues("failed").Inc()
					logrus.WithError(err).WithField("chat_id", id).Warn("broadcast delivery failed")
					return
				}
				report.Sent++
				metrics.BroadcastMessagesTotal.WithLabelValues("sent").Inc()
			}(id)
		}
		wg.Wait()
	}

	logrus.WithFields(logrus.Fields{
		"sent":   report.Sent,
		"failed": report.Failed,
	}).Info("broadcast finished")
	return report, nil
}
