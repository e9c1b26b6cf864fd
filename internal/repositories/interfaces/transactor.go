package interfaces

import "context"

// Transactor runs fn atomically. Repository calls made with the ctx passed
// to fn join the transaction; if fn returns an error nothing is committed.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
