package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tickets (
	source     TEXT NOT NULL CHECK(source IN ('INQUIRY', 'REPORT')),
	id         TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT 'OTHER',
	body       TEXT NOT NULL DEFAULT '',
	answer     TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'OPEN',
	created_at DATETIME NOT NULL,
	position   INTEGER NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (source, id)
);

CREATE INDEX IF NOT EXISTS idx_tickets_order ON tickets(created_at DESC, position);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(source, status);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
