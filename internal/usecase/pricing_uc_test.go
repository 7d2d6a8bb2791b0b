//go:build !integration

package usecase_test

import (
	"errors"
	"testing"

	"github.com/august-unsainted/payment-bot/internal/domain"
	"github.com/august-unsainted/payment-bot/internal/domain/model"
	"github.com/august-unsainted/payment-bot/internal/usecase"
)

func TestPriceCatalog(t *testing.T) {
	plans := []*model.Plan{
		{Key: "year", Label: "Год", Amount: 12000, PeriodDays: 365},
		{Key: "week", Label: "Неделя", Amount: 500, PeriodDays: 7},
		{Key: "month", Label: "Месяц", Amount: 1500, PeriodDays: 30},
	}

	t.Run("orders plans by period", func(t *testing.T) {
		catalog, err := usecase.NewPriceCatalog(plans)
		if err != nil {
			t.Fatalf("NewPriceCatalog failed: %v", err)
		}
		all := catalog.All()
		if len(all) != 3 {
			t.Fatalf("wanted 3 plans, got %d", len(all))
		}
		wantOrder := []string{"week", "month", "year"}
		for i, key := range wantOrder {
			if all[i].Key != key {
				t.Errorf("position %d: wanted %q, got %q", i, key, all[i].Key)
			}
		}
	})

	t.Run("lookup finds by key", func(t *testing.T) {
		catalog, _ := usecase.NewPriceCatalog(plans)

		p, err := catalog.Lookup("month")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if p.Amount != 1500 {
			t.Errorf("wanted amount 1500, got %d", p.Amount)
		}

		if _, err := catalog.Lookup("decade"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("wanted ErrNotFound for an unknown key, got %v", err)
		}
	})

	t.Run("rejects duplicates and invalid entries", func(t *testing.T) {
		dup := []*model.Plan{
			{Key: "month", Label: "A", Amount: 1, PeriodDays: 30},
			{Key: "month", Label: "B", Amount: 2, PeriodDays: 31},
		}
		if _, err := usecase.NewPriceCatalog(dup); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("wanted ErrInvalidArgument for duplicate keys, got %v", err)
		}

		bad := []*model.Plan{{Key: "free", Label: "Free", Amount: 0, PeriodDays: 30}}
		if _, err := usecase.NewPriceCatalog(bad); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("wanted ErrInvalidArgument for a zero amount, got %v", err)
		}

		if _, err := usecase.NewPriceCatalog(nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("wanted ErrInvalidArgument for an empty catalog, got %v", err)
		}
	})

	t.Run("returned plans are copies", func(t *testing.T) {
		catalog, _ := usecase.NewPriceCatalog(plans)

		p, _ := catalog.Lookup("month")
		p.Amount = 9999

		again, _ := catalog.Lookup("month")
		if again.Amount != 1500 {
			t.Errorf("catalog must not be mutable through lookups, got %d", again.Amount)
		}
	})
}
