package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Status mirrors the payment processor's subscription lifecycle states.
// Unknown processor statuses are stored verbatim rather than rejected, so a
// forward-compatible processor change cannot desync the mirror.
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusTrialing   Status = "trialing"
	StatusActive     Status = "active"
	StatusPastDue    Status = "past_due"
	StatusCanceled   Status = "canceled"
	StatusUnpaid     Status = "unpaid"
)

// CancelState tracks cancellation intent separately from Status.
//
// CancelRequestedLocally is the optimistic mark set by the cancellation
// coordinator before the processor confirms; a later subscription-updated
// event moves it to CancelConfirmedExternally (or clears it if the user
// resumed). The webhook overwriting the local mark is expected behavior.
type CancelState string

const (
	CancelNone                CancelState = "none"
	CancelRequestedLocally    CancelState = "cancel_requested_locally"
	CancelConfirmedExternally CancelState = "cancel_confirmed_externally"
)

// Subscription is the authoritative local mirror of a processor-managed
// subscription. Rows are created and mutated only through Store upserts keyed
// by ExternalRef; canceled rows are retained for history, never deleted.
type Subscription struct {
	ID                 uuid.UUID
	UserID             string
	ExternalRef        string // processor's subscription ID, unique
	PlanID             string
	Status             Status
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelState        CancelState
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsActive reports whether the subscription currently grants access.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive || s.Status == StatusTrialing
}

// IsCanceled reports whether the subscription has terminated.
func (s *Subscription) IsCanceled() bool {
	return s.Status == StatusCanceled
}

// CancelPending reports whether a cancellation has been requested or
// confirmed but the subscription is still running out its period.
func (s *Subscription) CancelPending() bool {
	return !s.IsCanceled() && s.CancelState != CancelNone && s.CancelState != ""
}
