package postgres

import "context"

// migrate applies the schema. Statements are idempotent so startup can
// run them unconditionally.
func (db *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			phone TEXT UNIQUE NOT NULL,
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			phone_verified BOOLEAN NOT NULL DEFAULT FALSE,
			email_verification_token TEXT,
			dob DATE NOT NULL,
			account_number TEXT NOT NULL DEFAULT '',
			routing_code TEXT NOT NULL DEFAULT '',
			holder_name TEXT NOT NULL DEFAULT '',
			photo_url TEXT NOT NULL DEFAULT '',
			admin_approved BOOLEAN NOT NULL DEFAULT FALSE,
			referral_code TEXT UNIQUE NOT NULL,
			referred_by UUID REFERENCES users(id) ON DELETE SET NULL,
			proof_url TEXT NOT NULL DEFAULT '',
			balance NUMERIC(24,2) NOT NULL DEFAULT 0,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS users_referred_by_idx ON users (referred_by);`,
		`CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type TEXT NOT NULL CHECK (type IN ('withdrawal', 'deposit')),
			amount NUMERIC(24,2) NOT NULL CHECK (amount > 0),
			status TEXT NOT NULL CHECK (status IN ('requested', 'completed', 'rejected')),
			rejection_reason TEXT NOT NULL DEFAULT '',
			request_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS payments_user_id_idx ON payments (user_id);`,
		`CREATE INDEX IF NOT EXISTS payments_status_idx ON payments (status);`,
	}

	for _, stmt := range stmts {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
