package sqlite

// Table names. They double as keys of sqlite_sequence.
const (
	tableNodes        = "nodes"
	tableLinks        = "links"
	tableProperties   = "properties"
	tableProcessTypes = "process_types"
)

// Schema DDL for the working store. Statements are idempotent so CreateSchema
// can run against a database unpacked from an existing project file.
const (
	createNodes = `CREATE TABLE IF NOT EXISTS nodes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL DEFAULT '',
    x REAL NOT NULL DEFAULT 0,
    y REAL NOT NULL DEFAULT 0,
    type_id INTEGER NOT NULL DEFAULT 0,
    start_date TEXT,
    end_date TEXT,
    assignee TEXT NOT NULL DEFAULT '',
    path TEXT NOT NULL DEFAULT ''
);`

	// Links restrict node deletion; the session removes touching links first.
	createLinks = `CREATE TABLE IF NOT EXISTS links (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    src_id INTEGER NOT NULL,
    tgt_id INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (src_id) REFERENCES nodes(id) ON DELETE RESTRICT,
    FOREIGN KEY (tgt_id) REFERENCES nodes(id) ON DELETE RESTRICT
);`

	createProperties = `CREATE TABLE IF NOT EXISTS properties (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    type_tag TEXT NOT NULL,
    name TEXT NOT NULL UNIQUE,
    value TEXT NOT NULL DEFAULT ''
);`

	createProcessTypes = `CREATE TABLE IF NOT EXISTS process_types (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    color_r INTEGER NOT NULL DEFAULT 0,
    color_g INTEGER NOT NULL DEFAULT 0,
    color_b INTEGER NOT NULL DEFAULT 0
);`
)

// Index DDL.
const (
	idxLinksSrc = `CREATE INDEX IF NOT EXISTS idx_links_src ON links(src_id);`
	idxLinksTgt = `CREATE INDEX IF NOT EXISTS idx_links_tgt ON links(tgt_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createNodes,
	createLinks,
	createProperties,
	createProcessTypes,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxLinksSrc,
	idxLinksTgt,
}

// sequencedTables lists the tables whose identifiers come from
// sqlite_sequence, in insert order.
var sequencedTables = []string{
	tableNodes,
	tableLinks,
	tableProperties,
	tableProcessTypes,
}
