package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	rverrors "github.com/fintech-reviews/revload/pkg/errors"
	"github.com/fintech-reviews/revload/pkg/logging"
)

// bankStore is the repository surface the resolver needs.
type bankStore interface {
	LookupBank(ctx context.Context, name string) (int64, error)
	InsertBank(ctx context.Context, name string) (int64, error)
}

// BankResolver maps bank names to their dimension identity, creating the
// dimension row on first sight. Inserts commit immediately, outside any
// chunk transaction, so a later chunk rollback never orphans a bank id that
// normalized records already reference.
//
// Resolved ids are cached for the lifetime of the resolver. Safe for
// concurrent use.
type BankResolver struct {
	store  bankStore
	logger logging.Logger

	mu    sync.Mutex
	cache map[string]int64
}

// NewBankResolver creates a resolver backed by the repository's pool.
func NewBankResolver(repo *Repository, logger logging.Logger) *BankResolver {
	return newBankResolver(repo, logger)
}

func newBankResolver(store bankStore, logger logging.Logger) *BankResolver {
	return &BankResolver{
		store:  store,
		logger: logger.With(logging.F("component", "bank_resolver")),
		cache:  make(map[string]int64),
	}
}

// Resolve returns the bank_id for name, inserting the bank if it does not
// exist yet. A unique-violation race with a concurrent loader is absorbed by
// re-reading the winner's row.
func (r *BankResolver) Resolve(ctx context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.cache[name]; ok {
		return id, nil
	}

	id, err := r.store.LookupBank(ctx, name)
	if err == nil {
		r.cache[name] = id
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up bank %q: %w", name, err)
	}

	id, err = r.store.InsertBank(ctx, name)
	if err == nil {
		r.logger.Info("Bank created", logging.F("bank", name), logging.F("bank_id", id))
	} else if rverrors.IsUniqueViolation(err) {
		// Another loader created the bank between our lookup and insert.
		r.logger.Debug("Bank insert lost race, re-reading", logging.F("bank", name))
		id, err = r.store.LookupBank(ctx, name)
		if err != nil {
			return 0, rverrors.NewLoadError(rverrors.ErrBankRaceConflict, "resolve",
				fmt.Errorf("bank %q: re-read after conflict: %w", name, err))
		}
	} else {
		return 0, fmt.Errorf("failed to create bank %q: %w", name, err)
	}

	r.cache[name] = id
	return id, nil
}
