package usecase

import (
	"sort"

	"github.com/august-unsainted/payment-bot/internal/domain"
	"github.com/august-unsainted/payment-bot/internal/domain/model"
)

// PriceCatalog is the read-only plan table, loaded once at startup.
type PriceCatalog struct {
	plans map[string]*model.Plan
	order []*model.Plan
}

// NewPriceCatalog validates the plans and fixes their display order,
// shortest period first.
func NewPriceCatalog(plans []*model.Plan) (*PriceCatalog, error) {
	if len(plans) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	byKey := make(map[string]*model.Plan, len(plans))
	ordered := make([]*model.Plan, 0, len(plans))
	for _, p := range plans {
		if p.IsZero() || p.Amount <= 0 || p.PeriodDays <= 0 {
			return nil, domain.ErrInvalidArgument
		}
		if _, dup := byKey[p.Key]; dup {
			return nil, domain.ErrInvalidArgument
		}
		cp := *p
		byKey[p.Key] = &cp
		ordered = append(ordered, &cp)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].PeriodDays < ordered[j].PeriodDays })
	return &PriceCatalog{plans: byKey, order: ordered}, nil
}

// Lookup returns the plan for a catalog key.
func (c *PriceCatalog) Lookup(key string) (*model.Plan, error) {
	p, ok := c.plans[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// All returns the plans in display order.
func (c *PriceCatalog) All() []*model.Plan {
	out := make([]*model.Plan, len(c.order))
	for i, p := range c.order {
		cp := *p
		out[i] = &cp
	}
	return out
}
