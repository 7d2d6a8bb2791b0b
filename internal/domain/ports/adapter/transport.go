package adapter

import (
	"context"

	"github.com/august-unsainted/payment-bot/internal/domain/model"
)

// Transport is the outbound chat surface the core calls through. The real
// implementation lives in infra/telegram; tests use in-memory fakes.
type Transport interface {
	SendMessage(ctx context.Context, recipient int64, msg model.OutboundMessage) error
	EditMessage(ctx context.Context, recipient int64, messageID int, msg model.OutboundMessage) error
	// ForwardProof re-sends a proof photo to the admin chat together with the
	// decision keyboard and returns the created message id.
	ForwardProof(ctx context.Context, adminChat int64, fileID string, msg model.OutboundMessage) (int, error)
	// BanMember removes the user from the gated channel. Banning an absent
	// user is a no-op.
	BanMember(ctx context.Context, userID int64) error
	UnbanMember(ctx context.Context, userID int64) error
	// CreateSingleUseInvite returns an invite link valid for exactly one join.
	CreateSingleUseInvite(ctx context.Context) (string, error)
}
