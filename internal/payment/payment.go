package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/simplelearn-uz/convertbot/internal/metrics"
	"github.com/simplelearn-uz/convertbot/internal/subscription"
	"github.com/simplelearn-uz/convertbot/types"
)

// Notifier delivers the decision back to the paying user. Delivery failures
// are logged, never rolled back: by the time we notify, the decision is
// already final.
type Notifier interface {
	NotifyApproved(ctx context.Context, userID int64, plan types.Plan, expiresAt time.Time) error
	NotifyRejected(ctx context.Context, userID int64, note string) error
}

// Workflow runs payment requests through pending -> approved|rejected.
// A request is resolved exactly once; the store's compare-and-set on the
// pending status is the only arbiter between racing admins.
type Workflow struct {
	payments types.PaymentStore
	plans    types.PlanStore
	subs     *subscription.Service
	notifier Notifier
	isAdmin  func(int64) bool
}

func NewWorkflow(payments types.PaymentStore, plans types.PlanStore, subs *subscription.Service, notifier Notifier, isAdmin func(int64) bool) *Workflow {
	return &Workflow{
		payments: payments,
		plans:    plans,
		subs:     subs,
		notifier: notifier,
		isAdmin:  isAdmin,
	}
}

// Create opens a pending request for the given plan. The plan must exist and
// be active; the amount is frozen from the plan at creation time so later
// price changes cannot alter a request in flight.
func (w *Workflow) Create(ctx context.Context, userID int64, planID int64, proofFileID string) (*types.PaymentRequest, error) {
	plan, err := w.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, errors.Wrapf(err, "plan %d", planID)
	}
	if !plan.Active {
		return nil, errors.Wrapf(types.ErrNotFound, "plan %d is inactive", planID)
	}

	req := &types.PaymentRequest{
		ID:          uuid.NewString(),
		UserID:      userID,
		PlanID:      plan.ID,
		Amount:      plan.Price,
		ProofFileID: proofFileID,
		Status:      types.PaymentPending,
		CreatedAt:   time.Now(),
	}
	if err := w.payments.CreatePayment(ctx, *req); err != nil {
		return nil, errors.Wrap(err, "create payment request")
	}

	logrus.WithFields(logrus.Fields{
		"payment_id": req.ID,
		"user_id":    userID,
		"plan_id":    plan.ID,
	}).Info("payment request created")
	return req, nil
}

// Approve resolves the request and extends the user's subscription by the
// plan's duration. The plan is loaded before the status flips, so a missing
// plan aborts cleanly with the request still pending.
func (w *Workflow) Approve(ctx context.Context, requestID string, adminID int64) error {
	if !w.isAdmin(adminID) {
		return errors.Wrapf(types.ErrUnauthorized, "user %d is not an admin", adminID)
	}

	req, err := w.payments.GetPayment(ctx, requestID)
	if err != nil {
		return errors.Wrapf(err, "payment %s", requestID)
	}
	plan, err := w.plans.GetPlan(ctx, req.PlanID)
	if err != nil {
		return errors.Wrapf(err, "plan %d for payment %s", req.PlanID, requestID)
	}

	flipped, err := w.payments.MarkProcessed(ctx, requestID, types.PaymentApproved, adminID, "")
	if err != nil {
		return errors.Wrap(err, "mark approved")
	}
	if !flipped {
		return errors.Wrapf(types.ErrAlreadyResolved, "payment %s", requestID)
	}

	expiresAt, err := w.subs.Extend(ctx, req.UserID, plan.DurationDays)
	if err != nil {
		return errors.Wrapf(err, "extend subscription for payment %s", requestID)
	}

	metrics.PaymentsTotal.WithLabelValues("approved").Inc()
	logrus.WithFields(logrus.Fields{
		"payment_id": requestID,
		"user_id":    req.UserID,
		"admin_id":   adminID,
	}).Info("payment approved")

	if err := w.notifier.NotifyApproved(ctx, req.UserID, *plan, expiresAt); err != nil {
		logrus.WithError(err).WithField("user_id", req.UserID).Warn("approval notification failed")
	}
	return nil
}

// Reject resolves the request without touching the subscription.
func (w *Workflow) Reject(ctx context.Context, requestID string, adminID int64, note string) error {
	if !w.isAdmin(adminID) {
		return errors.Wrapf(types.ErrUnauthorized, "user %d is not an admin", adminID)
	}

	req, err := w.payments.GetPayment(ctx, requestID)
	if err != nil {
		return errors.Wrapf(err, "payment %s", requestID)
	}

	flipped, err := w.payments.MarkProcessed(ctx, requestID, types.PaymentRejected, adminID, note)
	if err != nil {
		return errors.Wrap(err, "mark rejected")
	}
	if !flipped {
		return errors.Wrapf(types.ErrAlreadyResolved, "payment %s", requestID)
	}

	logrus.WithFields(logrus.Fields{
		"payment_id": requestID,
		"user_id":    req.UserID,
		"admin_id":   adminID,
	}).Info("payment rejected")
	metrics.PaymentsTotal.WithLabelValues("rejected").Inc()

	if err := w.notifier.NotifyRejected(ctx, req.UserID, note); err != nil {
		logrus.WithError(err).WithField("user_id", req.UserID).Warn("rejection notification failed")
	}
	return nil
}
