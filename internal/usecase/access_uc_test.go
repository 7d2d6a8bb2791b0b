//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/august-unsainted/payment-bot/internal/domain"
	"github.com/august-unsainted/payment-bot/internal/domain/model"
	"github.com/august-unsainted/payment-bot/internal/usecase"
)

type accessUCTestDeps struct {
	payments  *MockPaymentRepo
	transport *MockTransport
	payUC     usecase.PaymentUseCase
	uc        usecase.AccessUseCase
}

func newAccessUCDeps(t *testing.T) *accessUCTestDeps {
	t.Helper()
	deps := &accessUCTestDeps{
		payments:  NewMockPaymentRepo(),
		transport: NewMockTransport(),
	}
	catalog, err := usecase.NewPriceCatalog([]*model.Plan{monthPlan()})
	if err != nil {
		t.Fatalf("NewPriceCatalog failed: %v", err)
	}
	deps.payUC = usecase.NewPaymentUseCase(deps.payments, NewMockTxManager(), newTestLogger())
	deps.uc = usecase.NewAccessUseCase(deps.payUC, catalog, deps.transport, stubTranslator{}, testAdminChat, newTestLogger())
	return deps
}

// activateMember pushes a payment through submit, accept and activate.
func (d *accessUCTestDeps) activateMember(ctx context.Context, t *testing.T, userID int64) *model.Payment {
	t.Helper()
	p, err := d.payUC.Submit(ctx, userID, monthPlan(), "file-1")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := d.payUC.Decide(ctx, p.ID, true); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := d.payUC.Activate(ctx, userID, start); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	return p
}

func TestAccessUC_OnNotify(t *testing.T) {
	ctx := context.Background()
	payload := model.JobPayload{UserID: 42, DisplayName: "Alice"}

	t.Run("sends the reminder and leaves state alone", func(t *testing.T) {
		deps := newAccessUCDeps(t)
		p := deps.activateMember(ctx, t, 42)

		if err := deps.uc.OnNotify(ctx, payload); err != nil {
			t.Fatalf("OnNotify failed: %v", err)
		}

		msgs := deps.transport.MessagesTo(42)
		if len(msgs) != 1 || msgs[0].Text != "renewal_reminder" {
			t.Fatalf("wanted one renewal_reminder, got %v", msgs)
		}
		if len(msgs[0].Buttons) != 1 {
			t.Errorf("reminder must carry the plan keyboard, got %d rows", len(msgs[0].Buttons))
		}
		stored, _ := deps.payments.FindByID(ctx, nil, p.ID)
		if stored.Status != model.PaymentStatusActive {
			t.Errorf("the reminder must not touch payment state, got %q", stored.Status)
		}
	})

	t.Run("delivery failure is a DeliveryError", func(t *testing.T) {
		deps := newAccessUCDeps(t)
		deps.transport.SendErr = errors.New("blocked by user")

		err := deps.uc.OnNotify(ctx, payload)
		if !errors.Is(err, domain.ErrDeliveryFailed) {
			t.Errorf("wanted ErrDeliveryFailed, got %v", err)
		}
	})
}

func TestAccessUC_OnRevoke(t *testing.T) {
	ctx := context.Background()
	payload := model.JobPayload{UserID: 42, DisplayName: "Alice"}

	t.Run("retires the payment and removes the member", func(t *testing.T) {
		deps := newAccessUCDeps(t)
		p := deps.activateMember(ctx, t, 42)

		if err := deps.uc.OnRevoke(ctx, payload); err != nil {
			t.Fatalf("OnRevoke failed: %v", err)
		}

		stored, _ := deps.payments.FindByID(ctx, nil, p.ID)
		if stored.Status != model.PaymentStatusInactive {
			t.Errorf("wanted status inactive, got %q", stored.Status)
		}
		if len(deps.transport.Banned) != 1 || deps.transport.Banned[0] != 42 {
			t.Errorf("wanted user 42 banned, got %v", deps.transport.Banned)
		}
		userMsgs := deps.transport.MessagesTo(42)
		if len(userMsgs) != 1 || userMsgs[0].Text != "membership_expired" {
			t.Errorf("wanted a membership_expired notice, got %v", userMsgs)
		}
		audits := deps.transport.MessagesTo(testAdminChat)
		if len(audits) != 1 || audits[0].Text != "audit_revoked" {
			t.Errorf("wanted one audit_revoked message, got %v", audits)
		}
	})

	t.Run("replay after a crash repeats without error", func(t *testing.T) {
		deps := newAccessUCDeps(t)
		deps.activateMember(ctx, t, 42)

		if err := deps.uc.OnRevoke(ctx, payload); err != nil {
			t.Fatalf("first OnRevoke failed: %v", err)
		}
		if err := deps.uc.OnRevoke(ctx, payload); err != nil {
			t.Fatalf("replayed OnRevoke failed: %v", err)
		}
	})

	t.Run("ban failure surfaces after the state change", func(t *testing.T) {
		deps := newAccessUCDeps(t)
		p := deps.activateMember(ctx, t, 42)
		deps.transport.BanErr = errors.New("api down")

		if err := deps.uc.OnRevoke(ctx, payload); err == nil {
			t.Fatal("wanted an error when the ban fails")
		}
		// State changed first, so the retry finds nothing left to deactivate.
		stored, _ := deps.payments.FindByID(ctx, nil, p.ID)
		if stored.Status != model.PaymentStatusInactive {
			t.Errorf("payment must already be retired, got %q", stored.Status)
		}

		deps.transport.BanErr = nil
		if err := deps.uc.OnRevoke(ctx, payload); err != nil {
			t.Errorf("retry after ban failure must succeed, got %v", err)
		}
	})
}
