package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

// Desktop-era project files keep their rows in upper-case INFO_* tables with
// "yyyy-MM-dd HH:mm:ss" timestamps and process type 0 for unset.
const (
	legacyNodes      = "INFO_NODES"
	legacyLinks      = "INFO_LINKS"
	legacyProperties = "INFO_PROPERTIES"
	legacyTypes      = "INFO_TYPES"
)

// legacyTime converts a desktop timestamp column to timeLayout. NULL and
// unparseable values become NULL.
const legacyTime = `strftime('%%Y-%%m-%%dT%%H:%%M:%%SZ', %s)`

var (
	importLegacyNodes = `INSERT INTO nodes (id, title, x, y, type_id, start_date, end_date, assignee, path)
SELECT ID, COALESCE(NODE_TITLE, ''), COALESCE(POS_X, 0), COALESCE(POS_Y, 0),
    CASE WHEN COALESCE(ID_TYPE, 0) = 0 THEN ` + fmt.Sprint(types.ProcessPlanned) + ` ELSE ID_TYPE END,
    ` + fmt.Sprintf(legacyTime, "DATE_START") + `, ` + fmt.Sprintf(legacyTime, "DATE_END") + `,
    COALESCE(ASSIGNEE, ''), COALESCE(PATH, '')
FROM INFO_NODES ORDER BY ID`

	// Links with a missing endpoint would fail the foreign keys; they are skipped.
	importLegacyLinks = `INSERT INTO links (id, src_id, tgt_id, created_at)
SELECT ID, ID_NODE_SRC, ID_NODE_TGT,
    COALESCE(` + fmt.Sprintf(legacyTime, "CREATED_AT") + `, ` + fmt.Sprintf(legacyTime, "'now'") + `)
FROM INFO_LINKS
WHERE ID_NODE_SRC IN (SELECT id FROM nodes) AND ID_NODE_TGT IN (SELECT id FROM nodes)
ORDER BY ID`

	importLegacyProperties = `INSERT OR IGNORE INTO properties (id, type_tag, name, value)
SELECT ID, TYPE, COALESCE(NAME, ''), COALESCE(VALUE, '')
FROM INFO_PROPERTIES ORDER BY ID`

	importLegacyTypes = `INSERT INTO process_types (id, name, color_r, color_g, color_b)
SELECT ID, COALESCE(TYPE, ''), COALESCE(COLOR_R, 0), COALESCE(COLOR_G, 0), COALESCE(COLOR_B, 0)
FROM INFO_TYPES ORDER BY ID`
)

// LegacyImport counts the rows carried over from desktop tables.
type LegacyImport struct {
	Nodes        int64
	Links        int64
	Properties   int64
	ProcessTypes int64
}

// ImportLegacyTables moves the rows of a desktop-format database into the
// working schema and drops the INFO_* tables, in one transaction. It reports
// false when the database has no INFO_NODES table. CreateSchema must have
// run first. The working tables are left untouched when they already hold
// nodes.
func (s *Store) ImportLegacyTables(ctx context.Context) (LegacyImport, bool, error) {
	var imported LegacyImport
	q, err := s.conn()
	if err != nil {
		return imported, false, err
	}
	ok, err := tableExists(ctx, q, legacyNodes)
	if err != nil || !ok {
		return imported, false, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx DBTX) error {
		var existing int64
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes").Scan(&existing); err != nil {
			return classify("counting nodes", err)
		}
		if existing == 0 {
			steps := []struct {
				table string
				stmt  string
				count *int64
			}{
				{legacyNodes, importLegacyNodes, &imported.Nodes},
				{legacyLinks, importLegacyLinks, &imported.Links},
				{legacyProperties, importLegacyProperties, &imported.Properties},
				{legacyTypes, importLegacyTypes, &imported.ProcessTypes},
			}
			for _, step := range steps {
				present, err := tableExists(ctx, tx, step.table)
				if err != nil {
					return err
				}
				if !present {
					continue
				}
				res, err := tx.ExecContext(ctx, step.stmt)
				if err != nil {
					return classify("importing "+step.table, err)
				}
				if *step.count, err = res.RowsAffected(); err != nil {
					return classify("importing "+step.table, err)
				}
			}
		}

		// Children before parents.
		for _, table := range []string{legacyLinks, legacyProperties, legacyTypes, legacyNodes} {
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return classify("dropping "+table, err)
			}
		}
		return nil
	})
	if err != nil {
		return LegacyImport{}, false, err
	}
	return imported, true, nil
}
