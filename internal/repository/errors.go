// Package repository implements store.Store on MySQL.  Each exported
// transaction method maps to one or two statements; row locks are taken
// with SELECT ... FOR UPDATE and held until the transaction ends.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/session-booking/internal/store"
)

// MySQL server error numbers the store reacts to.
const (
	errDupEntry     = 1062
	errLockDeadlock = 1213
)

// mapErr translates driver errors into store sentinels.  A duplicate key
// means a uniqueness rule fired (active booking per card or email, card
// code, ticket code) and becomes store.ErrDuplicate.
func mapErr(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == errDupEntry {
		return store.ErrDuplicate
	}
	return err
}

// isDeadlock reports whether the server chose this transaction as a
// deadlock victim.  Such transactions were rolled back and can be retried.
func isDeadlock(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errLockDeadlock
}
