package services

import (
	"context"
	"iter"

	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/current_account_ledger/internal/core/ports/repositories"
)

const defaultReplayPageSize = 500

// IterateMovements lazily walks an account's movement log in canonical order, fetching
// one page at a time. Each call of the returned sequence starts again from the first
// movement. Iteration stops at the first error, which is yielded with a zero movement.
func IterateMovements(ctx context.Context, reader portsrepo.MovementReader, accountID string, filter domain.MovementFilter, pageSize int) iter.Seq2[domain.Movement, error] {
	if pageSize <= 0 {
		pageSize = defaultReplayPageSize
	}
	return func(yield func(domain.Movement, error) bool) {
		page := domain.PageRequest{Limit: pageSize}
		for {
			if err := ctx.Err(); err != nil {
				yield(domain.Movement{}, err)
				return
			}
			result, err := reader.ListMovementsByAccountID(ctx, accountID, filter, page)
			if err != nil {
				yield(domain.Movement{}, err)
				return
			}
			for _, m := range result.Movements {
				if !yield(m, nil) {
					return
				}
			}
			if !result.HasMore || len(result.Movements) == 0 {
				return
			}
			page.AfterSequence = result.Movements[len(result.Movements)-1].Sequence
		}
	}
}
