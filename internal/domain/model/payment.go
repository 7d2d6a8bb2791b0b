package model

import (
	"time"

	"github.com/august-unsainted/payment-bot/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"  // proof submitted; awaiting admin decision
	PaymentStatusAccepted PaymentStatus = "accepted" // admin approved; awaiting channel join
	PaymentStatusRejected PaymentStatus = "rejected" // admin declined (terminal)
	PaymentStatusActive   PaymentStatus = "active"   // member of the channel; period running
	PaymentStatusInactive PaymentStatus = "inactive" // period ended or superseded (terminal)
)

// Payment records one paid subscription attempt and, once activated, the
// period it grants. A repeat purchase never reuses a record: activation of a
// new payment retires the previous active one.
type Payment struct {
	ID          string // ULID
	UserID      int64  // Telegram user ID
	PlanKey     string // price catalog key ("week", "month", ...)
	Amount      int64  // integer currency units
	PeriodDays  int
	Status      PaymentStatus
	ProofFileID string // Telegram file id of the submitted proof photo
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPayment validates and constructs a pending payment.
func NewPayment(id string, userID int64, planKey string, amount int64, periodDays int, proofFileID string) (*Payment, error) {
	if id == "" || userID == 0 || amount <= 0 || periodDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Payment{
		ID:          id,
		UserID:      userID,
		PlanKey:     planKey,
		Amount:      amount,
		PeriodDays:  periodDays,
		Status:      PaymentStatusPending,
		ProofFileID: proofFileID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Decided reports whether the payment reached a state where re-deciding it
// must be rejected.
func (p *Payment) Decided() bool {
	return p.Status != PaymentStatusPending
}

// Terminal reports whether no further transition is allowed.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentStatusRejected || p.Status == PaymentStatusInactive
}
