package persistence

import (
	"context"
	"fmt"

	"tracker_worker/core/port/out"

	"github.com/jmoiron/sqlx"
)

// SQLLedgerRepository implements out.LedgerRepository using PostgreSQL.
type SQLLedgerRepository struct {
	db *sqlx.DB
}

// NewSQLLedgerRepository creates a new SQLLedgerRepository.
func NewSQLLedgerRepository(db *sqlx.DB) *SQLLedgerRepository {
	return &SQLLedgerRepository{db: db}
}

// EnsureSchema creates the ledger table when it does not exist.
func (r *SQLLedgerRepository) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS sr_created_ledger (
			row_id     TEXT PRIMARY KEY,
			created_on TEXT NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create ledger table: %w", err)
	}
	return nil
}

type ledgerRow struct {
	RowID     string `db:"row_id"`
	CreatedOn string `db:"created_on"`
}

// LoadAll returns every recorded date.
func (r *SQLLedgerRepository) LoadAll(ctx context.Context) (map[string]string, error) {
	const query = `SELECT row_id, created_on FROM sr_created_ledger`

	var rows []ledgerRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	m := make(map[string]string, len(rows))
	for _, row := range rows {
		m[row.RowID] = row.CreatedOn
	}
	return m, nil
}

// PutIfAbsent stores date for rowID unless an entry already exists.
func (r *SQLLedgerRepository) PutIfAbsent(ctx context.Context, rowID, date string) (bool, error) {
	const query = `
		INSERT INTO sr_created_ledger (row_id, created_on)
		VALUES ($1, $2)
		ON CONFLICT (row_id) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, rowID, date)
	if err != nil {
		return false, fmt.Errorf("failed to write ledger entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

var _ out.LedgerRepository = (*SQLLedgerRepository)(nil)
