package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

const linkColumns = "id, src_id, tgt_id, created_at"

// InsertLink stores l and sets l.ID. A zero CreatedAt is set to now.
// Returns ErrReferentialIntegrity when either endpoint is not a stored node.
func (s *Store) InsertLink(ctx context.Context, l *types.Link) (int64, error) {
	q, err := s.conn()
	if err != nil {
		return 0, err
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	id, err := insertLink(ctx, q, *l)
	if err != nil {
		return 0, err
	}
	l.ID = id
	return id, nil
}

// DeleteLinksTouchingNode removes every link whose source or target is
// nodeID and reports how many were removed.
func (s *Store) DeleteLinksTouchingNode(ctx context.Context, nodeID int64) (int64, error) {
	q, err := s.conn()
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, "DELETE FROM links WHERE src_id = ? OR tgt_id = ?", nodeID, nodeID)
	if err != nil {
		return 0, classify(fmt.Sprintf("deleting links of node %d", nodeID), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify("counting deleted links", err)
	}
	return n, nil
}

// LoadAllLinks returns every link ordered by id. A database without a
// schema yields an empty slice.
func (s *Store) LoadAllLinks(ctx context.Context) ([]types.Link, error) {
	q, err := s.conn()
	if err != nil {
		return nil, err
	}
	links := []types.Link{}
	if ok, err := tableExists(ctx, q, tableLinks); err != nil || !ok {
		return links, err
	}

	rows, err := q.QueryContext(ctx, "SELECT "+linkColumns+" FROM links ORDER BY id")
	if err != nil {
		return nil, classify("loading links", err)
	}
	defer rows.Close()

	for rows.Next() {
		l, err := hydrateLink(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterating links", err)
	}
	return links, nil
}

func insertLink(ctx context.Context, q DBTX, l types.Link) (int64, error) {
	res, err := q.ExecContext(ctx,
		"INSERT INTO links ("+linkColumns+") VALUES (?, ?, ?, ?)",
		explicitID(l.ID), l.SourceID, l.TargetID, l.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, classify(fmt.Sprintf("inserting link %d->%d", l.SourceID, l.TargetID), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, classify("reading link id", err)
	}
	return id, nil
}

// hydrateLink converts a single SQLite row into a types.Link.
func hydrateLink(row rowScanner) (types.Link, error) {
	var l types.Link
	var createdAt string
	if err := row.Scan(&l.ID, &l.SourceID, &l.TargetID, &createdAt); err != nil {
		return types.Link{}, err
	}
	var err error
	l.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return types.Link{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return l, nil
}
