package store

// schemaV1 creates the initial tables.
//
// episodes and shows are keyed by the canonical remote path; both are only
// ever upserted, so replaying an interrupted run is safe.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS episodes (
	path TEXT PRIMARY KEY,
	show_path TEXT NOT NULL,
	lang TEXT,
	filename TEXT,
	size INTEGER,
	lastmod TEXT,
	etag TEXT,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_episodes_show_path ON episodes(show_path);

CREATE TABLE IF NOT EXISTS shows (
	path TEXT PRIMARY KEY,
	last_scan_ts INTEGER NOT NULL,
	last_remote_fingerprint TEXT
);

CREATE TABLE IF NOT EXISTS show_metadata (
	show_path TEXT PRIMARY KEY,
	title TEXT,
	lang TEXT,
	rating REAL,
	overview TEXT,
	genres TEXT, -- JSON array of genre names
	source TEXT,
	updated_at INTEGER NOT NULL
);
`
