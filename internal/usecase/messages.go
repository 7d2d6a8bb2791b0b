package usecase

import (
	"fmt"
	"strconv"
	"time"

	"github.com/august-unsainted/payment-bot/internal/domain/model"
)

// Translator resolves a message key into localized text.
// infra/i18n provides the production implementation.
type Translator interface {
	T(key string, args ...interface{}) string
}

// FormatAmount renders an integer amount with spaces as thousands
// separators: 1500 -> "1 500".
func FormatAmount(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// PlanListMessage builds the /start message with one button per plan.
func PlanListMessage(tr Translator, plans []*model.Plan) model.OutboundMessage {
	rows := make([][]model.Button, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, []model.Button{{
			Label: fmt.Sprintf("%s — %s₽", p.Label, FormatAmount(p.Amount)),
			Data:  "pay_" + p.Key,
		}})
	}
	return model.OutboundMessage{Text: tr.T("plan_list"), Buttons: rows}
}

// PlanDetailMessage builds the plan page with its single pay button.
func PlanDetailMessage(tr Translator, p *model.Plan) model.OutboundMessage {
	price := FormatAmount(p.Amount)
	return model.OutboundMessage{
		Text: tr.T("plan_detail", p.Label, price),
		Buttons: [][]model.Button{{
			{Label: tr.T("pay_button", price), Data: "proof_" + p.Key},
		}},
	}
}

// ProofReviewMessage builds the admin review card for a submitted proof.
func ProofReviewMessage(tr Translator, p *model.Payment, displayName string) model.OutboundMessage {
	return model.OutboundMessage{
		Text: tr.T("proof_review", displayName, p.UserID, FormatAmount(p.Amount), p.PeriodDays),
		Buttons: [][]model.Button{{
			{Label: tr.T("approve_button"), Data: "approve_" + p.ID},
			{Label: tr.T("reject_button"), Data: "reject_" + p.ID},
		}},
	}
}

// RenewalReminderMessage is sent by the notify job before expiry.
func RenewalReminderMessage(tr Translator, plans []*model.Plan) model.OutboundMessage {
	msg := PlanListMessage(tr, plans)
	msg.Text = tr.T("renewal_reminder")
	return msg
}

// InviteMessage delivers the single-use invite link after approval.
func InviteMessage(tr Translator, link string) model.OutboundMessage {
	return model.OutboundMessage{
		Text:    tr.T("payment_approved"),
		Buttons: [][]model.Button{{{Label: tr.T("join_button"), URL: link}}},
	}
}

// Text wraps a bare localized string into a message value.
func Text(tr Translator, key string, args ...interface{}) model.OutboundMessage {
	return model.OutboundMessage{Text: tr.T(key, args...)}
}

// formatDate renders timestamps shown to users and admins.
func formatDate(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}
