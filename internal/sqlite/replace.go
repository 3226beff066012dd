package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

// ReplaceAllData makes the store hold exactly snap, in one transaction.
//
// All rows are deleted and the identifier counters reset, then nodes, links,
// properties and process types are inserted with the caller's identifiers.
// Each counter finally returns to the larger of its value before the reset
// and the highest inserted identifier, so identifiers handed out earlier in
// the project are never handed out again. Any failure rolls the store back
// to its prior state and returns the error.
func (s *Store) ReplaceAllData(ctx context.Context, snap types.Snapshot) error {
	if _, err := s.conn(); err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx DBTX) error {
		marks := make(map[string]int64, len(sequencedTables))
		for _, table := range sequencedTables {
			hwm, err := highWaterMark(ctx, tx, table)
			if err != nil {
				return err
			}
			marks[table] = hwm
		}

		// Children before parents.
		for _, table := range []string{tableLinks, tableProperties, tableProcessTypes, tableNodes} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return classify("clearing "+table, err)
			}
		}
		if err := resetSequences(ctx, tx); err != nil {
			return err
		}

		for _, n := range snap.Nodes {
			if _, err := insertNode(ctx, tx, n); err != nil {
				return fmt.Errorf("replacing node %d: %w", n.ID, err)
			}
		}
		for _, l := range snap.Links {
			if _, err := insertLink(ctx, tx, l); err != nil {
				return fmt.Errorf("replacing link %d: %w", l.ID, err)
			}
		}
		for _, p := range snap.Properties {
			if _, err := insertProperty(ctx, tx, p); err != nil {
				return fmt.Errorf("replacing property %d: %w", p.ID, err)
			}
		}
		for _, pt := range snap.ProcessTypes {
			if _, err := insertProcessType(ctx, tx, pt); err != nil {
				return fmt.Errorf("replacing process type %d: %w", pt.ID, err)
			}
		}

		for _, table := range sequencedTables {
			if err := restoreSequence(ctx, tx, table, marks[table]); err != nil {
				return err
			}
		}
		return nil
	})
}

func resetSequences(ctx context.Context, tx DBTX) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence")
	if err != nil && !isMissingTable(err) {
		return classify("resetting sequences", err)
	}
	return nil
}

// restoreSequence raises the counter of table to at least hwm.
func restoreSequence(ctx context.Context, tx DBTX, table string, hwm int64) error {
	if hwm == 0 {
		return nil
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE sqlite_sequence SET seq = MAX(seq, ?) WHERE name = ?", hwm, table)
	if err != nil {
		return classify("restoring sequence for "+table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("restoring sequence for "+table, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO sqlite_sequence (name, seq) VALUES (?, ?)", table, hwm); err != nil {
		return classify("restoring sequence for "+table, err)
	}
	return nil
}
