package postgres

// Schema is the savings ledger DDL, applied by the migrate command. The
// partial unique index backs confirmation idempotency: one confirmation
// per (user, original estimate) can ever land.
const Schema = `
CREATE TABLE IF NOT EXISTS savings_ledger (
    id                UUID PRIMARY KEY,
    user_id           TEXT NOT NULL,
    amount            DOUBLE PRECISION NOT NULL CHECK (amount >= 0),
    currency          TEXT NOT NULL DEFAULT 'USD',
    description       TEXT NOT NULL DEFAULT '',
    category          TEXT NOT NULL,
    intervention_type TEXT NOT NULL,
    metadata          JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS savings_ledger_user_created_idx
    ON savings_ledger (user_id, created_at DESC);

CREATE UNIQUE INDEX IF NOT EXISTS savings_ledger_confirmation_uniq
    ON savings_ledger (user_id, (metadata->>'original_estimate_id'))
    WHERE (metadata->>'confirmed')::boolean IS TRUE;
`
