package db

// Schema is the DDL for the mailsheets state database.
const Schema = `
CREATE TABLE IF NOT EXISTS checkpoint (
    id          INTEGER PRIMARY KEY CHECK (id = 1),
    token       TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);
`
