package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

// classify wraps a driver error with the matching standard error so callers
// can test it with errors.Is. The driver error stays in the chain.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY"):
		return fmt.Errorf("%s: %w: %w", op, types.ErrReferentialIntegrity, err)
	case isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE"):
		return fmt.Errorf("%s: %w: %w", op, types.ErrDuplicateName, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, types.ErrStorageIO, err)
	}
}

// isConstraint matches an extended constraint code, falling back to the
// primary code plus message when the driver reports only the primary code.
func isConstraint(err error, extended int, marker string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	if code == extended {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), marker)
}

// isMissingTable reports whether err is a "no such table" error, which the
// sequence table raises until the first AUTOINCREMENT insert.
func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
