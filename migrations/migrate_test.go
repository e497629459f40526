package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr bool
	}{
		{
			name: "applies pending migration",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`SELECT pg_advisory_lock`).WithArgs(advisoryLockID).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT EXISTS`).WithArgs("001_init.sql").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectExec(`CREATE TABLE IF NOT EXISTS events`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs("001_init.sql").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`SELECT pg_advisory_unlock`).WithArgs(advisoryLockID).WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
		{
			name: "skips applied migration",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`SELECT pg_advisory_lock`).WithArgs(advisoryLockID).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT EXISTS`).WithArgs("001_init.sql").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
				mock.ExpectExec(`SELECT pg_advisory_unlock`).WithArgs(advisoryLockID).WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
		{
			name: "lock failure",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`SELECT pg_advisory_lock`).WithArgs(advisoryLockID).WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = Apply(ctx, db)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
