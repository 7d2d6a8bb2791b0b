//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/august-unsainted/payment-bot/internal/domain/model"
	"github.com/august-unsainted/payment-bot/internal/usecase"
)

const testAdminChat int64 = -100200300

type membershipUCTestDeps struct {
	payments  *MockPaymentRepo
	sched     *MockScheduler
	transport *MockTransport
	payUC     usecase.PaymentUseCase
	uc        usecase.MembershipUseCase
}

func newMembershipUCDeps(now time.Time) *membershipUCTestDeps {
	deps := &membershipUCTestDeps{
		payments:  NewMockPaymentRepo(),
		sched:     NewMockScheduler(),
		transport: NewMockTransport(),
	}
	deps.payUC = usecase.NewPaymentUseCase(deps.payments, NewMockTxManager(), newTestLogger())
	deps.uc = usecase.NewMembershipUseCase(
		deps.payUC, deps.sched, deps.transport, stubTranslator{},
		testAdminChat, 72*time.Hour, func() time.Time { return now }, newTestLogger(),
	)
	return deps
}

func TestMembershipUC_OnUserJoined(t *testing.T) {
	ctx := context.Background()
	join := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("accept then join activates and schedules both jobs", func(t *testing.T) {
		deps := newMembershipUCDeps(join)
		p, _ := deps.payUC.Submit(ctx, 42, monthPlan(), "file-1")
		if _, err := deps.payUC.Decide(ctx, p.ID, true); err != nil {
			t.Fatalf("Decide failed: %v", err)
		}

		if err := deps.uc.OnUserJoined(ctx, 42, "Alice"); err != nil {
			t.Fatalf("OnUserJoined failed: %v", err)
		}

		notify, ok := deps.sched.Jobs[model.JobKey{UserID: 42, Kind: model.JobKindNotify}]
		if !ok {
			t.Fatal("notify job was not scheduled")
		}
		wantNotify := time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC)
		if !notify.FireAt.Equal(wantNotify) {
			t.Errorf("wanted notify at %v, got %v", wantNotify, notify.FireAt)
		}
		if notify.Payload.UserID != 42 || notify.Payload.DisplayName != "Alice" {
			t.Errorf("unexpected notify payload: %+v", notify.Payload)
		}

		revoke, ok := deps.sched.Jobs[model.JobKey{UserID: 42, Kind: model.JobKindRevoke}]
		if !ok {
			t.Fatal("revoke job was not scheduled")
		}
		wantRevoke := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
		if !revoke.FireAt.Equal(wantRevoke) {
			t.Errorf("wanted revoke at %v, got %v", wantRevoke, revoke.FireAt)
		}

		if len(deps.transport.Banned) != 0 {
			t.Errorf("an approved member must not be banned, got %v", deps.transport.Banned)
		}
		audits := deps.transport.MessagesTo(testAdminChat)
		if len(audits) != 1 || audits[0].Text != "audit_join_activated" {
			t.Errorf("wanted one audit_join_activated message, got %v", audits)
		}
	})

	t.Run("join without an accepted payment is revoked", func(t *testing.T) {
		deps := newMembershipUCDeps(join)

		if err := deps.uc.OnUserJoined(ctx, 42, "Mallory"); err != nil {
			t.Fatalf("OnUserJoined failed: %v", err)
		}

		if len(deps.transport.Banned) != 1 || deps.transport.Banned[0] != 42 {
			t.Fatalf("wanted user 42 banned, got %v", deps.transport.Banned)
		}
		if len(deps.sched.Jobs) != 0 {
			t.Errorf("no jobs may be scheduled for a rejected join, got %d", len(deps.sched.Jobs))
		}
		audits := deps.transport.MessagesTo(testAdminChat)
		if len(audits) != 1 || audits[0].Text != "audit_join_rejected" {
			t.Errorf("wanted one audit_join_rejected message, got %v", audits)
		}
	})

	t.Run("scheduling failure surfaces to the caller", func(t *testing.T) {
		deps := newMembershipUCDeps(join)
		p, _ := deps.payUC.Submit(ctx, 42, monthPlan(), "file-1")
		deps.payUC.Decide(ctx, p.ID, true)
		deps.sched.ScheduleErr = errors.New("storage down")

		if err := deps.uc.OnUserJoined(ctx, 42, "Alice"); err == nil {
			t.Fatal("wanted an error when scheduling fails")
		}
	})

	t.Run("audit delivery failure does not fail the join", func(t *testing.T) {
		deps := newMembershipUCDeps(join)
		p, _ := deps.payUC.Submit(ctx, 42, monthPlan(), "file-1")
		deps.payUC.Decide(ctx, p.ID, true)
		deps.transport.SendErr = errors.New("chat unreachable")

		if err := deps.uc.OnUserJoined(ctx, 42, "Alice"); err != nil {
			t.Errorf("audit failures must be swallowed, got %v", err)
		}
		if len(deps.sched.Jobs) != 2 {
			t.Errorf("both jobs must still be scheduled, got %d", len(deps.sched.Jobs))
		}
	})
}
