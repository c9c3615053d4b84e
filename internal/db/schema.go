package db

const schemaSQL = `
CREATE TABLE IF NOT EXISTS relay_events (
    event_id   TEXT PRIMARY KEY,
    timestamp  TEXT NOT NULL,
    type       TEXT NOT NULL,
    level      TEXT NOT NULL DEFAULT 'INFO',
    request_id TEXT,
    message    TEXT NOT NULL,
    payload    TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_relay_events_timestamp ON relay_events(timestamp);
CREATE INDEX IF NOT EXISTS idx_relay_events_type ON relay_events(type);
`
