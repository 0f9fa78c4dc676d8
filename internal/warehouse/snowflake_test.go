package warehouse

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dbtflow/dbtflow/internal/connstore"
	"github.com/dbtflow/dbtflow/internal/logger"
)

func TestDSNFromPasswordConnection(t *testing.T) {
	conn := &connstore.Connection{
		Name:      "prod",
		Account:   "myorg-myacct",
		User:      "loader",
		Password:  "secret",
		Role:      "LOADER",
		Database:  "ANALYTICS",
		Warehouse: "COMPUTE_WH",
		Schema:    "DEMO",
	}

	dsn, err := DSN(conn)
	require.NoError(t, err)
	require.Contains(t, dsn, "myorg-myacct")
	require.Contains(t, dsn, "loader")
	require.Contains(t, dsn, "ANALYTICS")
	require.Contains(t, dsn, "COMPUTE_WH")
}

func TestDSNFromKeyPairConnection(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	conn := &connstore.Connection{
		Name:       "prod",
		Account:    "myorg-myacct",
		User:       "loader",
		PrivateKey: string(pemKey),
	}

	dsn, err := DSN(conn)
	require.NoError(t, err)
	require.Contains(t, dsn, "authenticator=snowflake_jwt")
}

func TestDSNRejectsBadKeyMaterial(t *testing.T) {
	conn := &connstore.Connection{
		Name:       "prod",
		Account:    "myorg-myacct",
		User:       "loader",
		PrivateKey: "not a pem block",
	}
	_, err := DSN(conn)
	require.ErrorIs(t, err, ErrNotRSAKey)
}

func TestCheckScansSessionContext(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"current_time", "current_user", "current_database", "current_warehouse", "current_schema"}).
			AddRow(now, "LOADER", "ANALYTICS", "COMPUTE_WH", "DEMO"),
	)

	s := &Snowflake{db: db, log: logger.Nop()}
	info, err := s.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, "LOADER", info.User)
	require.Equal(t, "ANALYTICS", info.Database)
	require.Equal(t, "COMPUTE_WH", info.Warehouse)
	require.Equal(t, "DEMO", info.Schema)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleRowsScansAllRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("UNION ALL").WillReturnRows(
		sqlmock.NewRows([]string{"source", "query_time", "test_value"}).
			AddRow("Sample Data", time.Now(), 1).
			AddRow("More Sample Data", time.Now(), 2),
	)

	s := &Snowflake{db: db, log: logger.Nop()}
	rows, err := s.SampleRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Sample Data", rows[0].Source)
	require.Equal(t, 2, rows[1].TestValue)
}

func TestGeneratedRowsUsesRowCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`ROWCOUNT=>3`).WillReturnRows(
		sqlmock.NewRows([]string{"description", "date_col", "random_value", "row_num"}).
			AddRow("Generated Test", time.Now(), 0.42, 1).
			AddRow("Generated Test", time.Now(), 0.13, 2).
			AddRow("Generated Test", time.Now(), 0.99, 3),
	)

	s := &Snowflake{db: db, log: logger.Nop()}
	rows, err := s.GeneratedRows(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, 3, rows[2].RowNum)
}
