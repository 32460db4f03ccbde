package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// Constraints the engine depends on:
//   - groups(owner_address, name) UNIQUE: duplicate group names per owner
//     fail at insert time, not via a prior existence check.
//   - group_payments(link_code) UNIQUE: link-code collisions fail the
//     insert so code generation can retry with a fresh code.
//   - group_payment_members(payment_id, slot_index) UNIQUE: one row per
//     slot, claimed via conditional update.
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    owner_address TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (owner_address, name)
);

CREATE TABLE IF NOT EXISTS group_members (
    group_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    address TEXT NOT NULL,
    display_name TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (group_id, position),
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS group_payments (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    owner_address TEXT NOT NULL,
    total_amount REAL NOT NULL,
    per_member REAL NOT NULL,
    link_code TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS group_payment_tokens (
    payment_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    token_id TEXT NOT NULL DEFAULT '',
    symbol TEXT NOT NULL,
    amount REAL NOT NULL,
    PRIMARY KEY (payment_id, position),
    FOREIGN KEY (payment_id) REFERENCES group_payments(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS group_payment_members (
    id TEXT PRIMARY KEY,
    payment_id TEXT NOT NULL,
    slot_index INTEGER NOT NULL,
    slot_state TEXT NOT NULL,
    member_address TEXT NOT NULL DEFAULT '',
    display_name TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    paid_at INTEGER,
    UNIQUE (payment_id, slot_index),
    FOREIGN KEY (payment_id) REFERENCES group_payments(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS request_payments (
    id TEXT PRIMARY KEY,
    payer TEXT NOT NULL,
    payee TEXT NOT NULL,
    amount REAL NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    settlement_tx TEXT NOT NULL DEFAULT '',
    is_group_payment INTEGER NOT NULL DEFAULT 0,
    group_payment_id TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS request_tokens (
    request_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    token_id TEXT NOT NULL DEFAULT '',
    symbol TEXT NOT NULL,
    amount REAL NOT NULL,
    PRIMARY KEY (request_id, position),
    FOREIGN KEY (request_id) REFERENCES request_payments(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS schedule_payments (
    id TEXT PRIMARY KEY,
    payer TEXT NOT NULL,
    payee TEXT NOT NULL,
    amount REAL NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    frequency TEXT NOT NULL,
    status TEXT NOT NULL,
    next_execution INTEGER,
    end_date INTEGER,
    max_executions INTEGER,
    execution_count INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schedule_tokens (
    schedule_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    token_id TEXT NOT NULL DEFAULT '',
    symbol TEXT NOT NULL,
    amount REAL NOT NULL,
    PRIMARY KEY (schedule_id, position),
    FOREIGN KEY (schedule_id) REFERENCES schedule_payments(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS schedule_transactions (
    schedule_id TEXT NOT NULL,
    tx_id TEXT NOT NULL,
    PRIMARY KEY (schedule_id, tx_id),
    FOREIGN KEY (schedule_id) REFERENCES schedule_payments(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_groups_owner ON groups(owner_address);
CREATE INDEX IF NOT EXISTS idx_group_members_group_id ON group_members(group_id);
CREATE INDEX IF NOT EXISTS idx_group_payments_group_id ON group_payments(group_id);
CREATE INDEX IF NOT EXISTS idx_payment_members_payment_id ON group_payment_members(payment_id);
CREATE INDEX IF NOT EXISTS idx_requests_payer ON request_payments(payer);
CREATE INDEX IF NOT EXISTS idx_requests_payee ON request_payments(payee);
CREATE INDEX IF NOT EXISTS idx_requests_group_payment ON request_payments(group_payment_id);
CREATE INDEX IF NOT EXISTS idx_schedules_payer ON schedule_payments(payer);
CREATE INDEX IF NOT EXISTS idx_schedules_due ON schedule_payments(status, next_execution);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
