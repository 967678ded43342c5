package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/store"
)

// defaultRetries bounds deadlock retries per InTx call.
const defaultRetries = 3

// Store is the MySQL implementation of store.Store.
type Store struct {
	db      *sql.DB
	log     zerolog.Logger
	now     func() time.Time
	retries int
}

// NewStore returns a Store bound to db.
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log, now: time.Now, retries: defaultRetries}
}

// InTx runs fn in a READ COMMITTED transaction so that reads taken after
// a row lock see every commit that preceded the lock.  Deadlock victims
// are retried with a short backoff.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	backoff := 20 * time.Millisecond
	for attempt := 0; ; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil || !isDeadlock(err) || attempt >= s.retries {
			return err
		}
		s.log.Warn().Err(err).Int("attempt", attempt+1).Msg("transaction deadlocked, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (s *Store) runTx(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()
	if err := fn(&txn{tx: sqlTx, now: s.now}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// txn implements store.Tx over a *sql.Tx.
type txn struct {
	tx  *sql.Tx
	now func() time.Time
}

func (t *txn) stamp() time.Time { return t.now().UTC().Truncate(time.Second) }

// notFound maps sql.ErrNoRows to store.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// inClause renders "col IN (?,?,...)" for values.  An empty list yields
// an always-true condition.
func inClause[T ~string](col string, values []T) (string, []any) {
	if len(values) == 0 {
		return "1=1", nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = string(v)
	}
	return col + " IN (" + marks + ")", args
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: p.UTC(), Valid: true}
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time.UTC()
	return &t
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullUint(p *uint64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func uintPtr(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
