package trcadvice

import (
	"context"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/peterbourgon/calltrc/trcmatch"
	"github.com/peterbourgon/calltrc/trcproxy"
	"github.com/sirupsen/logrus"
)

// TxManager begins transactions.
type TxManager interface {
	Begin(ctx context.Context, m trcmatch.Method) (Tx, error)
}

// Tx is a single transaction. Exactly one of Commit or Rollback is called,
// followed by Release.
type Tx interface {
	Commit() error
	Rollback() error
	Release()
}

// Transaction returns advice which runs every invocation in a transaction
// from tm. The transaction is committed if the invocation succeeds, and rolled
// back if it fails. It's released in either case.
//
// The invocation's error is returned unchanged, unless rollback also fails, in
// which case both errors are returned as a *multierror.Error.
func Transaction(tm TxManager) trcproxy.Advice {
	return trcproxy.AdviceFunc(func(ctx context.Context, inv *trcproxy.Invocation, proceed trcproxy.Proceed) ([]any, error) {
		tx, err := tm.Begin(ctx, inv.Method)
		if err != nil {
			return nil, err
		}
		defer tx.Release()

		res, err := proceed(ctx)
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				return res, multierror.Append(err, rerr)
			}
			return res, err
		}

		if err := tx.Commit(); err != nil {
			return res, err
		}

		return res, nil
	})
}

// LogTxManager is a TxManager that only logs transaction boundaries. It's
// useful for demonstrating, and testing, how transactions compose with other
// advice.
type LogTxManager struct {
	logger logrus.FieldLogger
	seq    atomic.Uint64
}

// NewLogTxManager returns a transaction manager logging to logger.
func NewLogTxManager(logger logrus.FieldLogger) *LogTxManager {
	return &LogTxManager{logger: logger}
}

// Begin implements TxManager.
func (tm *LogTxManager) Begin(ctx context.Context, m trcmatch.Method) (Tx, error) {
	logger := tm.logger.WithFields(logrus.Fields{
		"tx":     tm.seq.Add(1),
		"method": m.String(),
	})
	logger.Info("transaction begin")
	return &logTx{logger: logger}, nil
}

type logTx struct {
	logger logrus.FieldLogger
}

func (tx *logTx) Commit() error {
	tx.logger.Info("transaction commit")
	return nil
}

func (tx *logTx) Rollback() error {
	tx.logger.Info("transaction rollback")
	return nil
}

func (tx *logTx) Release() {
	tx.logger.Info("transaction release")
}
