package db

import (
	"fmt"
	"time"
)

// migration is a versioned schema change applied in order.
type migration struct {
	version     int
	description string
	statements  []string
}

// syncColumns is the per-record sync bookkeeping shared by every entity
// table: rowid identity, remote identifier, sync state and timestamps.
const syncColumns = `
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	remote_id TEXT NOT NULL DEFAULT '',
	sync_status TEXT NOT NULL DEFAULT 'new_offline',
	created_at INTEGER NOT NULL,
	last_modified INTEGER NOT NULL,`

var migrations = []migration{
	{
		version:     1,
		description: "initial entity tables",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS clients (` + syncColumns + `
				name TEXT NOT NULL,
				company_name TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT '',
				phone TEXT NOT NULL DEFAULT '',
				address TEXT NOT NULL DEFAULT '',
				country TEXT NOT NULL DEFAULT '',
				vat_number TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'active',
				client_type TEXT NOT NULL DEFAULT '',
				work_field TEXT NOT NULL DEFAULT '',
				notes TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS projects (` + syncColumns + `
				name TEXT NOT NULL,
				client_id TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'active',
				description TEXT NOT NULL DEFAULT '',
				start_date TEXT NOT NULL DEFAULT '',
				end_date TEXT NOT NULL DEFAULT '',
				total_amount REAL NOT NULL DEFAULT 0,
				currency TEXT NOT NULL DEFAULT '',
				notes TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS invoices (` + syncColumns + `
				invoice_number TEXT NOT NULL UNIQUE,
				client_id TEXT NOT NULL,
				project_id TEXT NOT NULL DEFAULT '',
				issue_date TEXT NOT NULL,
				due_date TEXT NOT NULL DEFAULT '',
				items TEXT NOT NULL DEFAULT '[]',
				subtotal REAL NOT NULL DEFAULT 0,
				discount_rate REAL NOT NULL DEFAULT 0,
				discount_amount REAL NOT NULL DEFAULT 0,
				tax_rate REAL NOT NULL DEFAULT 0,
				tax_amount REAL NOT NULL DEFAULT 0,
				total_amount REAL NOT NULL DEFAULT 0,
				amount_paid REAL NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'draft',
				currency TEXT NOT NULL DEFAULT '',
				notes TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS payments (` + syncColumns + `
				project_id TEXT NOT NULL,
				client_id TEXT NOT NULL DEFAULT '',
				date TEXT NOT NULL,
				amount REAL NOT NULL,
				account_id TEXT NOT NULL DEFAULT '',
				method TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS accounts (` + syncColumns + `
				name TEXT NOT NULL,
				code TEXT NOT NULL,
				type TEXT NOT NULL,
				parent_id TEXT NOT NULL DEFAULT '',
				balance REAL NOT NULL DEFAULT 0,
				currency TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'active'
			)`,
			`CREATE TABLE IF NOT EXISTS expenses (` + syncColumns + `
				date TEXT NOT NULL,
				category TEXT NOT NULL,
				amount REAL NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				account_id TEXT NOT NULL,
				payment_account_id TEXT NOT NULL DEFAULT '',
				project_id TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS services (` + syncColumns + `
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				default_price REAL NOT NULL DEFAULT 0,
				category TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'active'
			)`,
			`CREATE TABLE IF NOT EXISTS users (` + syncColumns + `
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL,
				full_name TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT '',
				is_active INTEGER NOT NULL DEFAULT 1,
				last_login TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS tasks (` + syncColumns + `
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'open',
				priority TEXT NOT NULL DEFAULT 'medium',
				assigned_to TEXT NOT NULL DEFAULT '',
				due_date TEXT NOT NULL DEFAULT '',
				project_id TEXT NOT NULL DEFAULT ''
			)`,
		},
	},
	{
		version:     2,
		description: "sync queue and sequence counters",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS sync_queue (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				entity_type TEXT NOT NULL,
				entity_id INTEGER NOT NULL,
				remote_id TEXT NOT NULL DEFAULT '',
				operation TEXT NOT NULL,
				payload TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'pending',
				retry_count INTEGER NOT NULL DEFAULT 0,
				max_retries INTEGER NOT NULL DEFAULT 3,
				next_retry_at INTEGER NOT NULL DEFAULT 0,
				last_attempt INTEGER NOT NULL DEFAULT 0,
				error_message TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS counters (
				name TEXT PRIMARY KEY,
				value INTEGER NOT NULL DEFAULT 0
			)`,
		},
	},
	{
		version:     3,
		description: "uniqueness and query indexes",
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_clients_name ON clients(name)`,
			`CREATE INDEX IF NOT EXISTS idx_clients_phone ON clients(phone)`,
			`CREATE INDEX IF NOT EXISTS idx_clients_status ON clients(status)`,
			`CREATE INDEX IF NOT EXISTS idx_clients_sync ON clients(sync_status)`,
			`CREATE INDEX IF NOT EXISTS idx_projects_name ON projects(name)`,
			`CREATE INDEX IF NOT EXISTS idx_projects_client ON projects(client_id)`,
			`CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status)`,
			`CREATE INDEX IF NOT EXISTS idx_projects_sync ON projects(sync_status)`,
			`CREATE INDEX IF NOT EXISTS idx_invoices_client ON invoices(client_id)`,
			`CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status)`,
			`CREATE INDEX IF NOT EXISTS idx_invoices_sync ON invoices(sync_status)`,
			`CREATE INDEX IF NOT EXISTS idx_payments_project ON payments(project_id)`,
			`CREATE INDEX IF NOT EXISTS idx_payments_date ON payments(date)`,
			`CREATE INDEX IF NOT EXISTS idx_payments_sync ON payments(sync_status)`,
			// Codes are unique among active accounts only; an archived
			// account releases its code for reuse.
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_code_active
				ON accounts(code) WHERE status = 'active'`,
			`CREATE INDEX IF NOT EXISTS idx_accounts_status ON accounts(status)`,
			`CREATE INDEX IF NOT EXISTS idx_accounts_sync ON accounts(sync_status)`,
			`CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date)`,
			`CREATE INDEX IF NOT EXISTS idx_expenses_project ON expenses(project_id)`,
			`CREATE INDEX IF NOT EXISTS idx_expenses_sync ON expenses(sync_status)`,
			`CREATE INDEX IF NOT EXISTS idx_services_name ON services(name)`,
			`CREATE INDEX IF NOT EXISTS idx_services_sync ON services(sync_status)`,
			`CREATE INDEX IF NOT EXISTS idx_users_sync ON users(sync_status)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_sync ON tasks(sync_status)`,
			`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status, next_retry_at)`,
			`CREATE INDEX IF NOT EXISTS idx_sync_queue_entity ON sync_queue(entity_type, entity_id)`,
			`CREATE INDEX IF NOT EXISTS idx_sync_queue_remote ON sync_queue(remote_id)`,
		},
	},
}

// Migrate applies all pending schema migrations in version order. Applied
// versions are recorded in schema_migrations and skipped on later runs.
func (db *DB) Migrate() error {
	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL,
		description TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}

		for _, stmt := range m.statements {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
			}
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, applied_at, description) VALUES (?, ?, ?)",
			m.version, time.Now().Unix(), m.description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}
