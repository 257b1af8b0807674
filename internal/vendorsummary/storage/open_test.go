package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		dsn    string
		driver Driver
		target string
	}{
		{"postgres://u:p@localhost:5432/inv?sslmode=disable", DriverPostgres, "postgres://u:p@localhost:5432/inv?sslmode=disable"},
		{"postgresql://localhost/inv", DriverPostgres, "postgresql://localhost/inv"},
		{"sqlite://inventory.db", DriverSQLite, "inventory.db"},
		{"sqlite:///var/data/inventory.db", DriverSQLite, "/var/data/inventory.db"},
		{"file:inventory.db?mode=ro", DriverSQLite, "file:inventory.db?mode=ro"},
		{" ./inventory.db ", DriverSQLite, "./inventory.db"},
	}
	for _, tc := range cases {
		driver, target, err := Resolve(tc.dsn)
		require.NoError(t, err, tc.dsn)
		require.Equal(t, tc.driver, driver, tc.dsn)
		require.Equal(t, tc.target, target, tc.dsn)
	}
}

func TestResolveRejects(t *testing.T) {
	for _, dsn := range []string{"", "mysql://root@localhost/inv", "sqlite://"} {
		_, _, err := Resolve(dsn)
		require.ErrorIs(t, err, ErrUnsupportedDSN, dsn)
	}
}

func TestOpenSQLite(t *testing.T) {
	store, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "inventory.db"), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(context.Background(), "redis://localhost", nil)
	require.ErrorIs(t, err, ErrUnsupportedDSN)
	require.Nil(t, store)
}
