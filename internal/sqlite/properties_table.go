package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

const propertyColumns = "id, type_tag, name, value"

// InsertProperty stores p and sets p.ID. Returns ErrDuplicateName when a
// property with the same name exists.
func (s *Store) InsertProperty(ctx context.Context, p *types.PropertyItem) (int64, error) {
	q, err := s.conn()
	if err != nil {
		return 0, err
	}
	id, err := insertProperty(ctx, q, *p)
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

// UpdateProperty overwrites the property with p.ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) UpdateProperty(ctx context.Context, p types.PropertyItem) error {
	q, err := s.conn()
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx,
		"UPDATE properties SET type_tag = ?, name = ?, value = ? WHERE id = ?",
		string(p.Type), p.Name, p.Value, p.ID,
	)
	if err != nil {
		return classify(fmt.Sprintf("updating property %d", p.ID), err)
	}
	if err := requireAffected(res, types.ErrNotFound); err != nil {
		return fmt.Errorf("updating property %d: %w", p.ID, err)
	}
	return nil
}

// DeleteProperty removes the property with id.
// Returns ErrNotFound if it does not exist.
func (s *Store) DeleteProperty(ctx context.Context, id int64) error {
	q, err := s.conn()
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, "DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return classify(fmt.Sprintf("deleting property %d", id), err)
	}
	if err := requireAffected(res, types.ErrNotFound); err != nil {
		return fmt.Errorf("deleting property %d: %w", id, err)
	}
	return nil
}

// LoadAllProperties returns every property ordered by id.
func (s *Store) LoadAllProperties(ctx context.Context) ([]types.PropertyItem, error) {
	q, err := s.conn()
	if err != nil {
		return nil, err
	}
	props := []types.PropertyItem{}
	if ok, err := tableExists(ctx, q, tableProperties); err != nil || !ok {
		return props, err
	}

	rows, err := q.QueryContext(ctx, "SELECT "+propertyColumns+" FROM properties ORDER BY id")
	if err != nil {
		return nil, classify("loading properties", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p types.PropertyItem
		var tag string
		if err := rows.Scan(&p.ID, &tag, &p.Name, &p.Value); err != nil {
			return nil, fmt.Errorf("hydrating property: %w", err)
		}
		p.Type = types.PropertyType(tag)
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterating properties", err)
	}
	return props, nil
}

func insertProperty(ctx context.Context, q DBTX, p types.PropertyItem) (int64, error) {
	res, err := q.ExecContext(ctx,
		"INSERT INTO properties ("+propertyColumns+") VALUES (?, ?, ?, ?)",
		explicitID(p.ID), string(p.Type), p.Name, p.Value,
	)
	if err != nil {
		return 0, classify(fmt.Sprintf("inserting property %q", p.Name), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, classify("reading property id", err)
	}
	return id, nil
}
