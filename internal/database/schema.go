package database

import (
	"database/sql"
	"fmt"
)

// Bootstrap creates the core tables if they do not exist. Statements are
// idempotent so the bootstrap is safe to run on every startup. Users and
// billers are owned by other services but live in the same database; their
// tables are created here so the core runs standalone in development.
func Bootstrap(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(100) UNIQUE NOT NULL,
			first_name VARCHAR(100) NOT NULL DEFAULT '',
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			account_level VARCHAR(20) NOT NULL DEFAULT 'STANDARD',
			has_claimed_welcome_gift BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			account_number VARCHAR(30) UNIQUE NOT NULL,
			balance NUMERIC(19,4) NOT NULL DEFAULT 0,
			account_type VARCHAR(20) NOT NULL,
			owner_id BIGINT REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS billers (
			id BIGSERIAL PRIMARY KEY,
			biller_name VARCHAR(150) UNIQUE NOT NULL,
			category VARCHAR(30) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
			logo_url VARCHAR(255),
			internal_account_id BIGINT NOT NULL REFERENCES accounts(id)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			reference UUID UNIQUE NOT NULL,
			transaction_type VARCHAR(30) NOT NULL,
			status VARCHAR(20) NOT NULL,
			amount NUMERIC(19,4) NOT NULL CHECK (amount > 0),
			from_account_id BIGINT REFERENCES accounts(id),
			to_account_id BIGINT REFERENCES accounts(id),
			transaction_date TIMESTAMPTZ NOT NULL,
			description VARCHAR(255),
			user_memo VARCHAR(255),
			running_balance NUMERIC(19,4),
			CHECK (from_account_id IS NOT NULL OR to_account_id IS NOT NULL)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_from_account
			ON transactions (from_account_id, transaction_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_to_account
			ON transactions (to_account_id, transaction_date DESC)`,
		`CREATE TABLE IF NOT EXISTS deposits (
			id BIGSERIAL PRIMARY KEY,
			transaction_id BIGINT NOT NULL REFERENCES transactions(id),
			to_account_id BIGINT NOT NULL REFERENCES accounts(id),
			amount NUMERIC(19,4) NOT NULL,
			processed_by_employee VARCHAR(100) NOT NULL,
			deposit_timestamp TIMESTAMPTZ NOT NULL,
			notes VARCHAR(255)
		)`,
		`CREATE TABLE IF NOT EXISTS interest_rates (
			account_type VARCHAR(20) NOT NULL,
			account_level VARCHAR(20) NOT NULL,
			annual_rate NUMERIC(10,5) NOT NULL,
			description VARCHAR(255),
			PRIMARY KEY (account_type, account_level)
		)`,
		`CREATE TABLE IF NOT EXISTS interest_accruals (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL REFERENCES accounts(id),
			accrual_date DATE NOT NULL,
			interest_amount NUMERIC(31,12) NOT NULL,
			closing_balance NUMERIC(19,4) NOT NULL,
			annual_rate_used NUMERIC(10,5) NOT NULL,
			paid_out BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE (account_id, accrual_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interest_accruals_unpaid
			ON interest_accruals (account_id) WHERE paid_out = FALSE`,
		`CREATE TABLE IF NOT EXISTS scheduled_payments (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			from_account_id BIGINT NOT NULL REFERENCES accounts(id),
			to_account_id BIGINT REFERENCES accounts(id),
			biller_id BIGINT REFERENCES billers(id),
			biller_reference VARCHAR(100),
			amount NUMERIC(19,4) NOT NULL CHECK (amount > 0),
			frequency VARCHAR(20) NOT NULL,
			start_date DATE NOT NULL,
			next_execution_date DATE NOT NULL,
			end_date DATE,
			status VARCHAR(20) NOT NULL,
			user_memo VARCHAR(255),
			CHECK (
				(to_account_id IS NOT NULL AND biller_id IS NULL)
				OR (to_account_id IS NULL AND biller_id IS NOT NULL)
			)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scheduled_payments_due
			ON scheduled_payments (next_execution_date) WHERE status = 'ACTIVE'`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema bootstrap: %w", err)
		}
	}
	return nil
}
