//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/august-unsainted/payment-bot/internal/domain"
	"github.com/august-unsainted/payment-bot/internal/domain/model"
	"github.com/august-unsainted/payment-bot/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// stubTranslator returns the key unchanged so tests assert on keys rather
// than on locale text.
type stubTranslator struct{}

func (stubTranslator) T(key string, args ...interface{}) string { return key }

// MockPaymentRepo is an in-memory PaymentRepository. Individual methods can
// be overridden via the Func fields to simulate failures.
type MockPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*model.Payment

	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) error
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{payments: make(map[string]*model.Payment)}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindAcceptedUnstarted(ctx context.Context, tx repository.Tx, userID int64) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Payment
	for _, p := range m.payments {
		if p.UserID != userID || p.Status != model.PaymentStatusAccepted || p.StartDate != nil {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *MockPaymentRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID int64) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.UserID == userID && p.Status == model.PaymentStatusActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) List(ctx context.Context, tx repository.Tx, status model.PaymentStatus, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		if status != "" && p.Status != status {
			continue
		}
		cp := *p
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Seed stores a payment directly, bypassing Save overrides.
func (m *MockPaymentRepo) Seed(p *model.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.payments[p.ID] = &cp
}

// MockTxManager runs the callback without a real transaction and records
// which users were locked.
type MockTxManager struct {
	mu          sync.Mutex
	LockedUsers []int64

	WithTxErr error
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxErr != nil {
		return m.WithTxErr
	}
	return fn(ctx, nil)
}

func (m *MockTxManager) LockUser(ctx context.Context, tx repository.Tx, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LockedUsers = append(m.LockedUsers, userID)
	return nil
}

type sentMessage struct {
	To  int64
	Msg model.OutboundMessage
}

// MockTransport records every outbound call and lets tests inject failures.
type MockTransport struct {
	mu       sync.Mutex
	Sent     []sentMessage
	Edited   []sentMessage
	Proofs   []string
	Banned   []int64
	Unbanned []int64
	Invites  int

	SendErr    error
	BanErr     error
	ForwardErr error
	InviteErr  error
}

func NewMockTransport() *MockTransport { return &MockTransport{} }

func (m *MockTransport) SendMessage(ctx context.Context, recipient int64, msg model.OutboundMessage) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{To: recipient, Msg: msg})
	return nil
}

func (m *MockTransport) EditMessage(ctx context.Context, recipient int64, messageID int, msg model.OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edited = append(m.Edited, sentMessage{To: recipient, Msg: msg})
	return nil
}

func (m *MockTransport) ForwardProof(ctx context.Context, adminChat int64, fileID string, msg model.OutboundMessage) (int, error) {
	if m.ForwardErr != nil {
		return 0, m.ForwardErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Proofs = append(m.Proofs, fileID)
	return len(m.Proofs), nil
}

func (m *MockTransport) BanMember(ctx context.Context, userID int64) error {
	if m.BanErr != nil {
		return m.BanErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Banned = append(m.Banned, userID)
	return nil
}

func (m *MockTransport) UnbanMember(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unbanned = append(m.Unbanned, userID)
	return nil
}

func (m *MockTransport) CreateSingleUseInvite(ctx context.Context) (string, error) {
	if m.InviteErr != nil {
		return "", m.InviteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invites++
	return "https://t.me/+invite", nil
}

// MessagesTo returns every message sent to one recipient.
func (m *MockTransport) MessagesTo(recipient int64) []model.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OutboundMessage
	for _, s := range m.Sent {
		if s.To == recipient {
			out = append(out, s.Msg)
		}
	}
	return out
}

// MockScheduler records scheduled jobs keyed the same way the durable
// scheduler keys them.
type MockScheduler struct {
	mu       sync.Mutex
	Jobs     map[model.JobKey]*model.ScheduledJob
	Canceled []model.JobKey

	ScheduleErr error
}

func NewMockScheduler() *MockScheduler {
	return &MockScheduler{Jobs: make(map[model.JobKey]*model.ScheduledJob)}
}

func (m *MockScheduler) Schedule(ctx context.Context, job *model.ScheduledJob) error {
	if m.ScheduleErr != nil {
		return m.ScheduleErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.Jobs[job.Key()] = &cp
	return nil
}

func (m *MockScheduler) Cancel(ctx context.Context, key model.JobKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Jobs, key)
	m.Canceled = append(m.Canceled, key)
	return nil
}

// MockSubmissionRepo is an in-memory SubmissionRepository honoring the
// expired-is-absent contract.
type MockSubmissionRepo struct {
	mu   sync.Mutex
	subs map[int64]*model.PendingSubmission
}

func NewMockSubmissionRepo() *MockSubmissionRepo {
	return &MockSubmissionRepo{subs: make(map[int64]*model.PendingSubmission)}
}

func (m *MockSubmissionRepo) Set(ctx context.Context, tx repository.Tx, s *model.PendingSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[s.UserID] = &cp
	return nil
}

func (m *MockSubmissionRepo) Get(ctx context.Context, tx repository.Tx, userID int64) (*model.PendingSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[userID]
	if !ok || s.Expired(time.Now()) {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubmissionRepo) Clear(ctx context.Context, tx repository.Tx, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, userID)
	return nil
}
