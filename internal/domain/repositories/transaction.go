package repositories

import "context"

// TxFn is the body of one transactional unit of work. It receives a context
// carrying the open transaction; returning an error rolls everything back.
type TxFn func(ctx context.Context) error

// TransactionManager runs units of work atomically. An edit's aggregate save
// and its ledger batch always go through one ExecTx call, so a rejected edit
// leaves no partial rows behind.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
