package store

const schemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	batch_id       TEXT NOT NULL DEFAULT '',
	problem        TEXT NOT NULL,
	domain         TEXT NOT NULL,
	plan_length    INTEGER NOT NULL,
	failed         INTEGER NOT NULL,
	duration_sec   REAL NOT NULL,
	nodes_expanded INTEGER NOT NULL,
	error          TEXT,
	created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_problem ON runs(problem);
`
