package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/store"
)

var _ store.Store = (*Store)(nil)
var _ store.Tx = (*txn)(nil)

func TestMapErr(t *testing.T) {
	dup := &mysql.MySQLError{Number: errDupEntry, Message: "Duplicate entry"}
	if !errors.Is(mapErr(fmt.Errorf("insert: %w", dup)), store.ErrDuplicate) {
		t.Fatal("expected duplicate key to map to store.ErrDuplicate")
	}
	other := &mysql.MySQLError{Number: 1452, Message: "foreign key"}
	if got := mapErr(other); got != other {
		t.Fatalf("expected other errors unchanged, got %v", got)
	}
}

func TestIsDeadlock(t *testing.T) {
	if !isDeadlock(&mysql.MySQLError{Number: errLockDeadlock}) {
		t.Fatal("expected 1213 to be a deadlock")
	}
	if isDeadlock(errors.New("boom")) {
		t.Fatal("expected plain error not to be a deadlock")
	}
}

func TestNotFound(t *testing.T) {
	if !errors.Is(notFound(sql.ErrNoRows), store.ErrNotFound) {
		t.Fatal("expected sql.ErrNoRows to map to store.ErrNotFound")
	}
}

func TestInClause(t *testing.T) {
	cond, args := inClause("status", []model.BookingStatus{model.BookingConfirmed, model.BookingCheckedIn})
	if cond != "status IN (?,?)" {
		t.Fatalf("unexpected condition %q", cond)
	}
	if len(args) != 2 || args[0] != "confirmed" || args[1] != "checked_in" {
		t.Fatalf("unexpected args %v", args)
	}
	cond, args = inClause[model.TicketStatus]("status", nil)
	if cond != "1=1" || args != nil {
		t.Fatalf("expected always-true clause, got %q %v", cond, args)
	}
}
