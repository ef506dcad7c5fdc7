package trcadvice_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/peterbourgon/calltrc/trcadvice"
	"github.com/peterbourgon/calltrc/trcmatch"
	"github.com/peterbourgon/calltrc/trcproxy"
	"github.com/sirupsen/logrus"
)

type journalTxManager struct {
	mtx         sync.Mutex
	events      []string
	rollbackErr error
}

func (tm *journalTxManager) add(event string) {
	tm.mtx.Lock()
	defer tm.mtx.Unlock()
	tm.events = append(tm.events, event)
}

func (tm *journalTxManager) String() string {
	tm.mtx.Lock()
	defer tm.mtx.Unlock()
	return strings.Join(tm.events, " ")
}

func (tm *journalTxManager) Begin(ctx context.Context, m trcmatch.Method) (trcadvice.Tx, error) {
	tm.add("begin:" + m.Name)
	return journalTx{tm}, nil
}

type journalTx struct{ tm *journalTxManager }

func (tx journalTx) Commit() error   { tx.tm.add("commit"); return nil }
func (tx journalTx) Rollback() error { tx.tm.add("rollback"); return tx.tm.rollbackErr }
func (tx journalTx) Release()        { tx.tm.add("release") }

func buildTransactional(t *testing.T, tm trcadvice.TxManager) (Service, *repository) {
	t.Helper()

	repo := &repository{}
	policies := []trcproxy.Policy{
		trcproxy.MustPolicy("tx", "execution(* *..*Service.*(..))", trcadvice.Transaction(tm)),
	}
	s, err := trcproxy.Build[Service](&service{repo: repo}, policies, newServiceProxy)
	AssertNoError(t, err)
	return s, repo
}

func TestTransactionCommit(t *testing.T) {
	t.Parallel()

	tm := &journalTxManager{}
	s, _ := buildTransactional(t, tm)

	AssertNoError(t, s.Order(context.Background(), "itemA"))
	AssertEqual(t, "begin:Order commit release", tm.String())
}

func TestTransactionRollback(t *testing.T) {
	t.Parallel()

	tm := &journalTxManager{}
	s, _ := buildTransactional(t, tm)

	err := s.Order(context.Background(), "ex")
	if err != errIllegalItem {
		t.Fatalf("want %v (identical), have %v", errIllegalItem, err)
	}
	AssertEqual(t, "begin:Order rollback release", tm.String())
}

func TestTransactionRollbackFailure(t *testing.T) {
	t.Parallel()

	errRollback := errors.New("rollback failed")
	tm := &journalTxManager{rollbackErr: errRollback}
	s, _ := buildTransactional(t, tm)

	err := s.Order(context.Background(), "ex")
	var merr *multierror.Error
	AssertEqual(t, true, errors.As(err, &merr))
	AssertEqual(t, 2, len(merr.Errors))
	AssertEqual(t, true, errors.Is(err, errIllegalItem))
	AssertEqual(t, true, errors.Is(err, errRollback))
}

func TestTransactionBeginFailure(t *testing.T) {
	t.Parallel()

	errBegin := errors.New("no connection")
	tm := txManagerFunc(func(ctx context.Context, m trcmatch.Method) (trcadvice.Tx, error) {
		return nil, errBegin
	})
	s, repo := buildTransactional(t, tm)

	err := s.Order(context.Background(), "itemA")
	AssertEqual(t, errBegin, err)
	AssertEqual(t, int64(0), repo.calls.Load())
}

type txManagerFunc func(ctx context.Context, m trcmatch.Method) (trcadvice.Tx, error)

func (f txManagerFunc) Begin(ctx context.Context, m trcmatch.Method) (trcadvice.Tx, error) {
	return f(ctx, m)
}

func TestLogTxManager(t *testing.T) {
	t.Parallel()

	var (
		buf    = &bytes.Buffer{}
		logger = logrus.New()
	)
	logger.SetOutput(buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	s, _ := buildTransactional(t, trcadvice.NewLogTxManager(logger))
	AssertNoError(t, s.Order(context.Background(), "itemA"))

	var msgs []string
	for _, ln := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		AssertEqual(t, true, strings.Contains(ln, "tx=1"))
		i := strings.Index(ln, `msg="`)
		j := strings.Index(ln[i+5:], `"`)
		msgs = append(msgs, ln[i+5:i+5+j])
	}
	AssertEqual(t, "transaction begin,transaction commit,transaction release", strings.Join(msgs, ","))
}
