package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

const processTypeColumns = "id, name, color_r, color_g, color_b"

// InsertProcessType stores pt and sets pt.ID.
func (s *Store) InsertProcessType(ctx context.Context, pt *types.ProcessType) (int64, error) {
	q, err := s.conn()
	if err != nil {
		return 0, err
	}
	id, err := insertProcessType(ctx, q, *pt)
	if err != nil {
		return 0, err
	}
	pt.ID = id
	return id, nil
}

// LoadAllProcessTypes returns every process type ordered by id.
func (s *Store) LoadAllProcessTypes(ctx context.Context) ([]types.ProcessType, error) {
	q, err := s.conn()
	if err != nil {
		return nil, err
	}
	pts := []types.ProcessType{}
	if ok, err := tableExists(ctx, q, tableProcessTypes); err != nil || !ok {
		return pts, err
	}

	rows, err := q.QueryContext(ctx, "SELECT "+processTypeColumns+" FROM process_types ORDER BY id")
	if err != nil {
		return nil, classify("loading process types", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pt types.ProcessType
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.R, &pt.G, &pt.B); err != nil {
			return nil, fmt.Errorf("hydrating process type: %w", err)
		}
		pts = append(pts, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterating process types", err)
	}
	return pts, nil
}

func insertProcessType(ctx context.Context, q DBTX, pt types.ProcessType) (int64, error) {
	res, err := q.ExecContext(ctx,
		"INSERT INTO process_types ("+processTypeColumns+") VALUES (?, ?, ?, ?, ?)",
		explicitID(pt.ID), pt.Name, pt.R, pt.G, pt.B,
	)
	if err != nil {
		return 0, classify(fmt.Sprintf("inserting process type %q", pt.Name), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, classify("reading process type id", err)
	}
	return id, nil
}
