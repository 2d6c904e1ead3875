package database

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    phone TEXT PRIMARY KEY,
    tokens INTEGER NOT NULL DEFAULT 1,
    total_generated INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS generations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    phone TEXT NOT NULL,
    prompt TEXT NOT NULL,
    enhanced_prompt TEXT NOT NULL,
    image_url TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (phone) REFERENCES accounts(phone)
);

CREATE INDEX IF NOT EXISTS idx_generations_phone ON generations(phone);
`
