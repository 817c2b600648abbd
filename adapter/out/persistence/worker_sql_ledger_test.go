package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLedger(t *testing.T) (*SQLLedgerRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLLedgerRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestSQLLedger_PutIfAbsent(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(mock sqlmock.Sqlmock)
		wantWritten bool
		wantErr     bool
	}{
		{
			name: "first write",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO sr_created_ledger").
					WithArgs("row-1", "10/06/2024").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantWritten: true,
		},
		{
			name: "existing entry is kept",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("ON CONFLICT \\(row_id\\) DO NOTHING").
					WithArgs("row-1", "10/06/2024").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantWritten: false,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO sr_created_ledger").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockLedger(t)
			tt.setupMock(mock)

			written, err := repo.PutIfAbsent(context.Background(), "row-1", "10/06/2024")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantWritten, written)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLLedger_LoadAll(t *testing.T) {
	repo, mock := newMockLedger(t)
	mock.ExpectQuery("SELECT row_id, created_on FROM sr_created_ledger").
		WillReturnRows(sqlmock.NewRows([]string{"row_id", "created_on"}).
			AddRow("a", "01/06/2024").
			AddRow("b", "02/06/2024"))

	got, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "01/06/2024", "b": "02/06/2024"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLLedger_EnsureSchema(t *testing.T) {
	repo, mock := newMockLedger(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sr_created_ledger").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
