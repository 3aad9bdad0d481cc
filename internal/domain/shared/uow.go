package shared

import "context"

// UnitOfWork runs a function inside one storage transaction. Repositories
// called with the context passed to fn join that transaction, so a multi-write
// operation commits completely or not at all.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
