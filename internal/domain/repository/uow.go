package repository

import "context"

// UnitOfWork is a storage session spanning the writes of one workflow.
//
// Transactional reports the capability explicitly: when true, Commit and
// Abort map to real multi-document ACID primitives; when false, writes were
// applied sequentially as they happened, Commit is a no-op and Abort cannot
// undo anything, so callers must run compensating actions themselves.
type UnitOfWork interface {
	Transactional() bool
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
	End(ctx context.Context)
}
