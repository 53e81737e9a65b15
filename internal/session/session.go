package session

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/simplelearn-uz/convertbot/internal/i18n"
	"github.com/simplelearn-uz/convertbot/types"
)

// State names the step of the per-user conversation.
type State string

const (
	StateIdle               State = "idle"
	StateCategoryChosen     State = "category_chosen"
	StateFileReceived       State = "file_received"
	StateConversionInFlight State = "conversion_in_flight"
	StateAwaitingPayment    State = "awaiting_payment"
	StateAwaitingProof      State = "awaiting_proof"
)

// ErrInvalidTransition is returned when an update arrives in a state that
// cannot accept it, e.g. a target pick while no file is pending.
var ErrInvalidTransition = errors.New("invalid conversation state transition")

// Session is the per-user conversation snapshot kept in redis.
type Session struct {
	UserID    int64              `json:"user_id"`
	State     State              `json:"state"`
	Lang      i18n.Lang          `json:"lang"`
	Pending   *types.PendingFile `json:"pending,omitempty"`
	Category  string             `json:"category,omitempty"`
	PlanID    int64              `json:"plan_id,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Store persists sessions keyed by user ID. A missing session is not an
// error condition for the manager, which treats it as a fresh idle one.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Put(ctx context.Context, s Session) error
	Delete(ctx context.Context, userID int64) error
}

// Manager drives the conversation state machine on top of a Store.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Get loads the user's session, synthesizing an idle one when none exists.
func (m *Manager) Get(ctx context.Context, userID int64) (*Session, error) {
	s, err := m.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return &Session{UserID: userID, State: StateIdle, Lang: i18n.UZ}, nil
		}
		return nil, err
	}
	if s.State == "" {
		s.State = StateIdle
	}
	return s, nil
}

func (m *Manager) save(ctx context.Context, s *Session) error {
	s.UpdatedAt = time.Now()
	return m.store.Put(ctx, *s)
}

// SetLanguage stores the user's language without disturbing the state.
func (m *Manager) SetLanguage(ctx context.Context, userID int64, lang i18n.Lang) error {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	s.Lang = lang
	return m.save(ctx, s)
}

// ChooseCategory remembers which format category the user browsed. Purely
// advisory: any convertible file is still accepted afterwards.
func (m *Manager) ChooseCategory(ctx context.Context, userID int64, category string) error {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	if s.State == StateConversionInFlight {
		return errors.Wrap(ErrInvalidTransition, "conversion in flight")
	}
	s.Category = category
	s.State = StateCategoryChosen
	return m.save(ctx, s)
}

// FileUploaded records a pending file and moves to file_received. A new
// upload simply replaces the previous pending file; only a conversion in
// flight refuses files.
func (m *Manager) FileUploaded(ctx context.Context, userID int64, file types.PendingFile) error {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	if s.State == StateConversionInFlight {
		return errors.Wrap(ErrInvalidTransition, "conversion already in flight")
	}
	s.Pending = &file
	s.State = StateFileReceived
	return m.save(ctx, s)
}

// BeginConversion claims the pending file and moves to conversion_in_flight.
// It fails unless exactly one file is pending, so double-taps on the target
// button cannot start two conversions.
func (m *Manager) BeginConversion(ctx context.Context, userID int64) (*types.PendingFile, error) {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.State != StateFileReceived || s.Pending == nil {
		return nil, errors.Wrapf(ErrInvalidTransition, "state %s has no pending file", s.State)
	}
	file := *s.Pending
	s.State = StateConversionInFlight
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	return &file, nil
}

// FinishConversion returns the user to idle whatever the outcome was.
func (m *Manager) FinishConversion(ctx context.Context, userID int64) error {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	s.State = StateIdle
	s.Pending = nil
	return m.save(ctx, s)
}

// StartSubscribe opens the plan menu step.
func (m *Manager) StartSubscribe(ctx context.Context, userID int64) error {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	if s.State == StateConversionInFlight {
		return errors.Wrap(ErrInvalidTransition, "conversion in flight")
	}
	s.State = StateAwaitingPayment
	s.Pending = nil
	s.PlanID = 0
	return m.save(ctx, s)
}

// ChoosePlan pins the plan and waits for the payment screenshot. A plan
// button stays valid whatever the user did since /subscribe, so any state
// short of an in-flight conversion enters the payment branch.
func (m *Manager) ChoosePlan(ctx context.Context, userID int64, planID int64) error {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	if s.State == StateConversionInFlight {
		return errors.Wrapf(ErrInvalidTransition, "plan pick in state %s", s.State)
	}
	s.PlanID = planID
	s.Pending = nil
	s.State = StateAwaitingProof
	return m.save(ctx, s)
}

// TakeProof consumes the chosen plan when the proof screenshot arrives and
// resets the user to idle. Returns the plan ID the proof pays for.
func (m *Manager) TakeProof(ctx context.Context, userID int64) (int64, error) {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.State != StateAwaitingProof || s.PlanID == 0 {
		return 0, errors.Wrapf(ErrInvalidTransition, "proof in state %s", s.State)
	}
	planID := s.PlanID
	s.PlanID = 0
	s.State = StateIdle
	if err := m.save(ctx, s); err != nil {
		return 0, err
	}
	return planID, nil
}

// Cancel aborts whatever is in progress, keeping only the language.
func (m *Manager) Cancel(ctx context.Context, userID int64) error {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	s.State = StateIdle
	s.Pending = nil
	s.Category = ""
	s.PlanID = 0
	return m.save(ctx, s)
}
