//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"github.com/august-unsainted/payment-bot/internal/domain"
)

func TestNewPayment(t *testing.T) {
	t.Run("valid payment starts pending", func(t *testing.T) {
		p, err := NewPayment("01HV", 42, "month", 1500, 30, "file-1")
		if err != nil {
			t.Fatalf("NewPayment failed: %v", err)
		}
		if p.Status != PaymentStatusPending {
			t.Errorf("wanted pending, got %q", p.Status)
		}
		if p.StartDate != nil || p.EndDate != nil {
			t.Error("a new payment must have no period")
		}
	})

	invalid := []struct {
		name       string
		id         string
		userID     int64
		amount     int64
		periodDays int
	}{
		{"empty id", "", 42, 1500, 30},
		{"zero user", "01HV", 0, 1500, 30},
		{"zero amount", "01HV", 42, 0, 30},
		{"negative amount", "01HV", 42, -5, 30},
		{"zero period", "01HV", 42, 1500, 0},
	}
	for _, c := range invalid {
		t.Run("rejects "+c.name, func(t *testing.T) {
			_, err := NewPayment(c.id, c.userID, "month", c.amount, c.periodDays, "file-1")
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("wanted ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestPaymentTransitionsHelpers(t *testing.T) {
	cases := []struct {
		status   PaymentStatus
		decided  bool
		terminal bool
	}{
		{PaymentStatusPending, false, false},
		{PaymentStatusAccepted, true, false},
		{PaymentStatusRejected, true, true},
		{PaymentStatusActive, true, false},
		{PaymentStatusInactive, true, true},
	}
	for _, c := range cases {
		p := &Payment{Status: c.status}
		if got := p.Decided(); got != c.decided {
			t.Errorf("%s: Decided() = %v, want %v", c.status, got, c.decided)
		}
		if got := p.Terminal(); got != c.terminal {
			t.Errorf("%s: Terminal() = %v, want %v", c.status, got, c.terminal)
		}
	}
}

func TestNewPlan(t *testing.T) {
	if _, err := NewPlan("month", "Месяц", 1500, 30); err != nil {
		t.Errorf("valid plan rejected: %v", err)
	}
	if _, err := NewPlan("", "Месяц", 1500, 30); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("wanted ErrInvalidArgument for an empty key, got %v", err)
	}
	if _, err := NewPlan("month", "Месяц", 1500, -1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("wanted ErrInvalidArgument for a negative period, got %v", err)
	}
}

func TestScheduledJobKey(t *testing.T) {
	j := &ScheduledJob{UserID: 42, Kind: JobKindRevoke}
	want := JobKey{UserID: 42, Kind: JobKindRevoke}
	if j.Key() != want {
		t.Errorf("wanted %+v, got %+v", want, j.Key())
	}
}

func TestPendingSubmissionExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &PendingSubmission{ExpiresAt: now.Add(15 * time.Minute)}

	if s.Expired(now) {
		t.Error("a fresh submission must not be expired")
	}
	if !s.Expired(now.Add(16 * time.Minute)) {
		t.Error("a submission past its TTL must be expired")
	}
}
