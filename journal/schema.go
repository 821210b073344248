package journal

const Schema = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	type TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	quantity REAL NOT NULL,
	order_id TEXT NOT NULL,
	signal TEXT NOT NULL,
	note TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_time ON events(time);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
`
