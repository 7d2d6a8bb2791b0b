package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. The concrete type is infra-defined
// (pgx.Tx for Postgres). Repositories MUST accept a nil handle and fall back
// to their non-transactional path.
type Tx interface{}

// NoTX is passed by callers that explicitly want the non-transactional path.
var NoTX Tx

// TransactionManager executes fn inside a database transaction, passing the
// tx handle through so repository calls join it. fn returning an error rolls
// the transaction back; otherwise it is committed. Use cases rely on this to
// keep read-modify-write transitions atomic.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
	// LockUser serializes all mutations for one user inside the current
	// transaction (advisory xact lock; released on commit/rollback).
	LockUser(ctx context.Context, tx Tx, userID int64) error
}
