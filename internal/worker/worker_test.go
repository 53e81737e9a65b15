package worker

import (
	"context"
	"image"
	"image/png"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplelearn-uz/convertbot/internal/config"
	"github.com/simplelearn-uz/convertbot/internal/convert"
	"github.com/simplelearn-uz/convertbot/internal/i18n"
	"github.com/simplelearn-uz/convertbot/internal/quota"
	"github.com/simplelearn-uz/convertbot/internal/session"
	"github.com/simplelearn-uz/convertbot/types"
)

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[int64]session.Session
}

func (s *memSessionStore) Get(_ context.Context, userID int64) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, errors.Wrap(types.ErrNotFound, "session")
	}
	return &sess, nil
}

func (s *memSessionStore) Put(_ context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.UserID] = sess
	return nil
}

func (s *memSessionStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

type memUsageStore struct {
	mu   sync.Mutex
	rows map[int64]types.UsageCounters
}

func (s *memUsageStore) GetCounters(_ context.Context, userID int64) (*types.UsageCounters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID]
	if !ok {
		return nil, errors.Wrap(types.ErrNotFound, "usage counters")
	}
	return &row, nil
}

func (s *memUsageStore) PutCounters(_ context.Context, c types.UsageCounters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[c.UserID] = c
	return nil
}

type memConversionLog struct {
	mu      sync.Mutex
	records []types.ConversionRecord
}

func (l *memConversionLog) InsertRecord(_ context.Context, r types.ConversionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
	return nil
}

func (l *memConversionLog) RecentRecords(_ context.Context, limit int) ([]types.ConversionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit > len(l.records) {
		limit = len(l.records)
	}
	return l.records[len(l.records)-limit:], nil
}

func (l *memConversionLog) snapshot() []types.ConversionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]types.ConversionRecord(nil), l.records...)
}

// pngDownloader writes a valid PNG to destPath regardless of fileID.
type pngDownloader struct {
	err error
}

func (d *pngDownloader) Download(_ context.Context, _ string, destPath string) error {
	if d.err != nil {
		return d.err
	}
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 4, 4)))
}

type recordingUploader struct {
	mu        sync.Mutex
	documents []string
	captions  []string
	texts     []string
}

func (u *recordingUploader) SendDocument(_ context.Context, _ int64, path, caption string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.documents = append(u.documents, path)
	u.captions = append(u.captions, caption)
	return nil
}

func (u *recordingUploader) SendText(_ context.Context, _ int64, text string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.texts = append(u.texts, text)
	return nil
}

func (u *recordingUploader) counts() (docs, texts int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.documents), len(u.texts)
}

func newTestPool(t *testing.T, downloader Downloader) (*Pool, *memUsageStore, *memConversionLog, *recordingUploader, *session.Manager) {
	t.Helper()
	dispatcher := convert.NewDispatcher(t.TempDir(), convert.NewExecRunner())

	usage := &memUsageStore{rows: map[int64]types.UsageCounters{}}
	log := &memConversionLog{}
	uploader := &recordingUploader{}
	sessions := session.NewManager(&memSessionStore{sessions: map[int64]session.Session{}})

	pool := NewPool(dispatcher, quota.NewEngine(usage), sessions, log, downloader, uploader, 1)
	pool.Start()
	t.Cleanup(pool.Stop)
	return pool, usage, log, uploader, sessions
}

func testJob(ext, target string) Job {
	return Job{
		UserID: 9,
		ChatID: 9,
		Lang:   i18n.EN,
		File: types.PendingFile{
			FileID:    "remote-1",
			FileName:  "picture." + ext,
			FileSize:  2048,
			Extension: ext,
		},
		TargetExt: target,
		Limits:    config.TierLimits{DailyConversions: 30, MaxFileBytes: 50 << 20},
	}
}

func TestPoolConvertsAndDelivers(t *testing.T) {
	pool, usage, log, uploader, sessions := newTestPool(t, &pngDownloader{})

	require.True(t, pool.Enqueue(testJob("png", "jpg")))

	require.Eventually(t, func() bool {
		docs, _ := uploader.counts()
		return docs == 1
	}, 5*time.Second, 10*time.Millisecond)

	records := log.snapshot()
	require.Len(t, records, 1)
	assert.Equal(t, types.ConversionSuccess, records[0].Status)
	assert.Equal(t, "png", records[0].OriginalFormat)
	assert.Equal(t, "jpg", records[0].TargetFormat)

	counters, err := usage.GetCounters(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 1, counters.ConversionsToday)
	assert.Equal(t, int64(2048), counters.TotalBytes)

	s, err := sessions.Get(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, session.StateIdle, s.State)
}

func TestPoolUnsupportedFormatNotifies(t *testing.T) {
	pool, usage, log, uploader, _ := newTestPool(t, &pngDownloader{})

	require.True(t, pool.Enqueue(testJob("xyz", "pdf")))

	require.Eventually(t, func() bool {
		_, texts := uploader.counts()
		return texts == 1
	}, 5*time.Second, 10*time.Millisecond)

	records := log.snapshot()
	require.Len(t, records, 1)
	assert.Equal(t, types.ConversionFailed, records[0].Status)
	assert.NotEmpty(t, records[0].ErrorMessage)

	_, err := usage.GetCounters(context.Background(), 9)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPoolDownloadFailure(t *testing.T) {
	pool, _, log, uploader, sessions := newTestPool(t, &pngDownloader{err: errors.New("telegram said no")})

	require.True(t, pool.Enqueue(testJob("png", "jpg")))

	require.Eventually(t, func() bool {
		_, texts := uploader.counts()
		return texts == 1
	}, 5*time.Second, 10*time.Millisecond)

	records := log.snapshot()
	require.Len(t, records, 1)
	assert.Equal(t, types.ConversionFailed, records[0].Status)

	s, err := sessions.Get(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, session.StateIdle, s.State)
}
