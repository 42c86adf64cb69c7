package txn

import (
	"context"

	"gorm.io/gorm"
)

// Transactor runs a function inside a database transaction carried by the context.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ctxKey struct{}

type scope struct {
	tx    *gorm.DB
	hooks []func(context.Context)
}

type gormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

// WithinTx starts a transaction, or a savepoint when ctx already carries one.
// Hooks registered with AfterCommit run once the outermost transaction commits.
func (t *gormTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	parent, nested := ctx.Value(ctxKey{}).(*scope)

	base := t.db
	if nested {
		base = parent.tx
	}

	child := &scope{}
	err := base.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		child.tx = tx
		return fn(context.WithValue(ctx, ctxKey{}, child))
	})
	if err != nil {
		return err
	}

	if nested {
		parent.hooks = append(parent.hooks, child.hooks...)
		return nil
	}

	hookCtx := context.WithoutCancel(ctx)
	for _, hook := range child.hooks {
		hook(hookCtx)
	}
	return nil
}

// DB returns the transaction in ctx, or fallback bound to ctx.
func DB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if s, ok := ctx.Value(ctxKey{}).(*scope); ok {
		return s.tx.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(ctxKey{}).(*scope)
	return ok
}

// AfterCommit defers fn until the surrounding transaction commits. Without a
// transaction fn runs immediately. Hooks of a rolled back scope are dropped.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	if s, ok := ctx.Value(ctxKey{}).(*scope); ok {
		s.hooks = append(s.hooks, fn)
		return
	}
	fn(ctx)
}
