package sqlite

import (
	"database/sql"
	"fmt"
	"time"
)

// timeLayout is the text layout of every timestamp column.
const timeLayout = time.RFC3339Nano

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// parseNullableTime parses a nullable timestamp column. NULL and empty
// strings yield nil.
func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", s.String, err)
	}
	return &t, nil
}

// nullableTime converts a *time.Time to a value suitable for SQLite storage.
// Returns nil (SQL NULL) if the pointer is nil.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// explicitID returns nil for zero so SQLite assigns the next identifier, and
// the identifier itself otherwise.
func explicitID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// requireAffected maps a zero-row UPDATE or DELETE to notFound.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
