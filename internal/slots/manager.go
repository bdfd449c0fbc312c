package slots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hallyu-journalist/internal/model"
)

// Store is the subset of persistence the manager needs.
type Store interface {
	SelectItems(ctx context.Context, category model.Category) ([]model.NewsItem, error)
	DeleteItems(ctx context.Context, ids []int64) error
	UpdateRanks(ctx context.Context, updates []model.RankUpdate) error
}

type Manager struct {
	store  Store
	policy Policy
	now    func() time.Time
}

func NewManager(store Store, policy Policy) *Manager {
	return &Manager{store: store, policy: policy, now: time.Now}
}

// Apply enforces capacity for one category. Write failures leave the
// collection partially updated; the next run converges it.
func (m *Manager) Apply(ctx context.Context, category model.Category) (Decision, error) {
	items, err := m.store.SelectItems(ctx, category)
	if err != nil {
		return Decision{}, fmt.Errorf("select %s: %w", category, err)
	}
	d := Plan(items, m.now(), m.policy)

	var errs []error
	if len(d.Evict) > 0 {
		if err := m.store.DeleteItems(ctx, d.Evict); err != nil {
			slog.Warn("slots: delete failed", "category", category, "ids", d.Evict, "err", err)
			errs = append(errs, fmt.Errorf("delete: %w", err))
		}
	}
	if len(d.RankUpdates) > 0 {
		if err := m.store.UpdateRanks(ctx, d.RankUpdates); err != nil {
			slog.Warn("slots: rank update failed", "category", category, "err", err)
			errs = append(errs, fmt.Errorf("ranks: %w", err))
		}
	}
	slog.Info("slots: applied", "category", category, "before", len(items), "evicted", len(d.Evict),
		"stale", d.StaleEvicted, "after", len(d.Survivors), "rank_updates", len(d.RankUpdates))
	return d, errors.Join(errs...)
}
