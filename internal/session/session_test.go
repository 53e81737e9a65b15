package session

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplelearn-uz/convertbot/internal/i18n"
	"github.com/simplelearn-uz/convertbot/types"
)

type memStore struct {
	sessions map[int64]Session
}

func newMemStore() *memStore {
	return &memStore{sessions: map[int64]Session{}}
}

func (s *memStore) Get(_ context.Context, userID int64) (*Session, error) {
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, errors.Wrap(types.ErrNotFound, "session")
	}
	return &sess, nil
}

func (s *memStore) Put(_ context.Context, sess Session) error {
	s.sessions[sess.UserID] = sess
	return nil
}

func (s *memStore) Delete(_ context.Context, userID int64) error {
	delete(s.sessions, userID)
	return nil
}

var testFile = types.PendingFile{FileID: "f1", FileName: "report.pdf", FileSize: 1024, Extension: "pdf"}

func TestGetMissingSessionIsIdle(t *testing.T) {
	m := NewManager(newMemStore())

	s, err := m.Get(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s.State)
	assert.Equal(t, i18n.UZ, s.Lang)
	assert.Nil(t, s.Pending)
}

func TestFileUploadThenConvert(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	require.NoError(t, m.FileUploaded(ctx, 9, testFile))

	s, err := m.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, StateFileReceived, s.State)
	require.NotNil(t, s.Pending)
	assert.Equal(t, "report.pdf", s.Pending.FileName)

	file, err := m.BeginConversion(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, testFile, *file)

	s, _ = m.Get(ctx, 9)
	assert.Equal(t, StateConversionInFlight, s.State)

	require.NoError(t, m.FinishConversion(ctx, 9))
	s, _ = m.Get(ctx, 9)
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.Pending)
}

func TestNewUploadReplacesPendingFile(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	require.NoError(t, m.FileUploaded(ctx, 9, testFile))
	second := types.PendingFile{FileID: "f2", FileName: "photo.png", FileSize: 512, Extension: "png"}
	require.NoError(t, m.FileUploaded(ctx, 9, second))

	s, _ := m.Get(ctx, 9)
	assert.Equal(t, "photo.png", s.Pending.FileName)
}

func TestUploadRefusedWhileConverting(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	require.NoError(t, m.FileUploaded(ctx, 9, testFile))
	_, err := m.BeginConversion(ctx, 9)
	require.NoError(t, err)

	err = m.FileUploaded(ctx, 9, testFile)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDoubleBeginConversionFails(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	require.NoError(t, m.FileUploaded(ctx, 9, testFile))
	_, err := m.BeginConversion(ctx, 9)
	require.NoError(t, err)

	_, err = m.BeginConversion(ctx, 9)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBeginConversionWithoutFileFails(t *testing.T) {
	m := NewManager(newMemStore())

	_, err := m.BeginConversion(context.Background(), 9)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestChooseCategoryIsAdvisory(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	require.NoError(t, m.ChooseCategory(ctx, 9, "images"))
	s, _ := m.Get(ctx, 9)
	assert.Equal(t, StateCategoryChosen, s.State)
	assert.Equal(t, "images", s.Category)

	// A file from any category is still accepted.
	require.NoError(t, m.FileUploaded(ctx, 9, testFile))
	s, _ = m.Get(ctx, 9)
	assert.Equal(t, StateFileReceived, s.State)
}

func TestSubscribeFlow(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	require.NoError(t, m.StartSubscribe(ctx, 9))
	require.NoError(t, m.ChoosePlan(ctx, 9, 1))

	s, _ := m.Get(ctx, 9)
	assert.Equal(t, StateAwaitingProof, s.State)

	planID, err := m.TakeProof(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(1), planID)

	s, _ = m.Get(ctx, 9)
	assert.Equal(t, StateIdle, s.State)
	assert.Zero(t, s.PlanID)
}

func TestProofWithoutPlanFails(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	_, err := m.TakeProof(ctx, 9)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, m.StartSubscribe(ctx, 9))
	_, err = m.TakeProof(ctx, 9)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestChoosePlanFromAnyState(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	// Straight from idle, no /subscribe first.
	require.NoError(t, m.ChoosePlan(ctx, 9, 1))
	s, _ := m.Get(ctx, 9)
	assert.Equal(t, StateAwaitingProof, s.State)

	// A pending file does not block the payment branch; it is dropped.
	require.NoError(t, m.Cancel(ctx, 9))
	require.NoError(t, m.FileUploaded(ctx, 9, testFile))
	require.NoError(t, m.ChoosePlan(ctx, 9, 2))
	s, _ = m.Get(ctx, 9)
	assert.Equal(t, StateAwaitingProof, s.State)
	assert.Nil(t, s.Pending)
	assert.Equal(t, int64(2), s.PlanID)
}

func TestChoosePlanRefusedWhileConverting(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	require.NoError(t, m.FileUploaded(ctx, 9, testFile))
	_, err := m.BeginConversion(ctx, 9)
	require.NoError(t, err)

	err = m.ChoosePlan(ctx, 9, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelResetsEverythingButLanguage(t *testing.T) {
	m := NewManager(newMemStore())
	ctx := context.Background()

	require.NoError(t, m.SetLanguage(ctx, 9, i18n.RU))
	require.NoError(t, m.FileUploaded(ctx, 9, testFile))
	require.NoError(t, m.Cancel(ctx, 9))

	s, _ := m.Get(ctx, 9)
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.Pending)
	assert.Equal(t, i18n.RU, s.Lang)
}
