package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary"
	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary/pgstore"
	"github.com/odyssey-erp/vendor-summary/internal/vendorsummary/sqlitestore"
)

// ErrUnsupportedDSN is returned for connection strings with an unknown scheme.
var ErrUnsupportedDSN = errors.New("storage: unsupported dsn")

// Driver identifies the backing database.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Resolve maps a connection string to a driver and the driver-specific DSN.
// postgres:// and postgresql:// select PostgreSQL; sqlite://path, file: URIs
// and bare paths select SQLite.
func Resolve(dsn string) (Driver, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("%w: empty", ErrUnsupportedDSN)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DriverPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("%w: missing sqlite path", ErrUnsupportedDSN)
		}
		return DriverSQLite, path, nil
	case strings.HasPrefix(dsn, "file:"):
		return DriverSQLite, dsn, nil
	case strings.Contains(dsn, "://"):
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedDSN, dsn[:strings.Index(dsn, "://")])
	default:
		return DriverSQLite, dsn, nil
	}
}

// Open connects to the database named by dsn. The caller must Close the store.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (vendorsummary.Store, error) {
	driver, target, err := Resolve(dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverPostgres {
		store, err := pgstore.Open(ctx, target, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := sqlitestore.Open(target, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}
