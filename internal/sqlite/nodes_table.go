package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

const nodeColumns = "id, title, x, y, type_id, start_date, end_date, assignee, path"

// InsertNode stores n and sets n.ID to the identifier the store assigned.
// A non-zero n.ID is kept as given.
func (s *Store) InsertNode(ctx context.Context, n *types.Node) (int64, error) {
	q, err := s.conn()
	if err != nil {
		return 0, err
	}
	id, err := insertNode(ctx, q, *n)
	if err != nil {
		return 0, err
	}
	n.ID = id
	return id, nil
}

// UpdateNode overwrites every column of the node with n.ID.
// Returns ErrNotFound if no such node exists.
func (s *Store) UpdateNode(ctx context.Context, n types.Node) error {
	q, err := s.conn()
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx,
		`UPDATE nodes SET title = ?, x = ?, y = ?, type_id = ?, start_date = ?, end_date = ?, assignee = ?, path = ?
         WHERE id = ?`,
		n.Title, n.X, n.Y, n.ProcessTypeID, nullableTime(n.Start), nullableTime(n.End), n.Assignee, n.Path, n.ID,
	)
	if err != nil {
		return classify(fmt.Sprintf("updating node %d", n.ID), err)
	}
	if err := requireAffected(res, types.ErrNotFound); err != nil {
		return fmt.Errorf("updating node %d: %w", n.ID, err)
	}
	return nil
}

// DeleteNode removes the node with id. Returns ErrNotFound if it does not
// exist and ErrReferentialIntegrity while links still reference it.
func (s *Store) DeleteNode(ctx context.Context, id int64) error {
	q, err := s.conn()
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, "DELETE FROM nodes WHERE id = ?", id)
	if err != nil {
		return classify(fmt.Sprintf("deleting node %d", id), err)
	}
	if err := requireAffected(res, types.ErrNotFound); err != nil {
		return fmt.Errorf("deleting node %d: %w", id, err)
	}
	return nil
}

// DeleteNodeWithLinks removes the links touching id and then the node, in
// one transaction. Returns the number of links removed, or ErrNotFound if
// the node does not exist.
func (s *Store) DeleteNodeWithLinks(ctx context.Context, id int64) (int64, error) {
	if _, err := s.conn(); err != nil {
		return 0, err
	}
	var removed int64
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx DBTX) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM links WHERE src_id = ? OR tgt_id = ?", id, id)
		if err != nil {
			return classify(fmt.Sprintf("deleting links of node %d", id), err)
		}
		if removed, err = res.RowsAffected(); err != nil {
			return classify("counting deleted links", err)
		}
		res, err = tx.ExecContext(ctx, "DELETE FROM nodes WHERE id = ?", id)
		if err != nil {
			return classify(fmt.Sprintf("deleting node %d", id), err)
		}
		if err := requireAffected(res, types.ErrNotFound); err != nil {
			return fmt.Errorf("deleting node %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// LoadAllNodes returns every node ordered by id. A database without a
// schema yields an empty slice.
func (s *Store) LoadAllNodes(ctx context.Context) ([]types.Node, error) {
	q, err := s.conn()
	if err != nil {
		return nil, err
	}
	nodes := []types.Node{}
	if ok, err := tableExists(ctx, q, tableNodes); err != nil || !ok {
		return nodes, err
	}

	rows, err := q.QueryContext(ctx, "SELECT "+nodeColumns+" FROM nodes ORDER BY id")
	if err != nil {
		return nil, classify("loading nodes", err)
	}
	defer rows.Close()

	for rows.Next() {
		n, err := hydrateNode(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterating nodes", err)
	}
	return nodes, nil
}

func insertNode(ctx context.Context, q DBTX, n types.Node) (int64, error) {
	res, err := q.ExecContext(ctx,
		"INSERT INTO nodes ("+nodeColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		explicitID(n.ID), n.Title, n.X, n.Y, n.ProcessTypeID, nullableTime(n.Start), nullableTime(n.End), n.Assignee, n.Path,
	)
	if err != nil {
		return 0, classify("inserting node", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, classify("reading node id", err)
	}
	return id, nil
}

// hydrateNode converts a single SQLite row into a types.Node.
func hydrateNode(row rowScanner) (types.Node, error) {
	var n types.Node
	var start, end sql.NullString
	if err := row.Scan(&n.ID, &n.Title, &n.X, &n.Y, &n.ProcessTypeID, &start, &end, &n.Assignee, &n.Path); err != nil {
		return types.Node{}, err
	}
	var err error
	if n.Start, err = parseNullableTime(start); err != nil {
		return types.Node{}, fmt.Errorf("node %d start: %w", n.ID, err)
	}
	if n.End, err = parseNullableTime(end); err != nil {
		return types.Node{}, fmt.Errorf("node %d end: %w", n.ID, err)
	}
	return n, nil
}
