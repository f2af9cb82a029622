package store

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_updated_at ON documents(updated_at);
`
