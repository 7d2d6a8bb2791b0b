package model

import "github.com/august-unsainted/payment-bot/internal/domain"

// Plan is one entry of the price catalog, loaded once from config at startup.
type Plan struct {
	Key        string
	Label      string // human label shown on keyboards ("Месяц", "Week", ...)
	Amount     int64
	PeriodDays int
}

func (p *Plan) IsZero() bool { return p == nil || p.Key == "" }

// NewPlan validates and constructs a catalog entry.
func NewPlan(key, label string, amount int64, periodDays int) (*Plan, error) {
	if key == "" || label == "" || amount <= 0 || periodDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{Key: key, Label: label, Amount: amount, PeriodDays: periodDays}, nil
}
