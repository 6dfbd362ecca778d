package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"cellar/internal/repositories"
)

// checkPersistent rejects stores that live only as long as the process.
// cellarctl exits after every command, so writing to one loses the data
// and copying from one empties the destination.
func checkPersistent(opts repositories.Options) error {
	switch opts.Driver {
	case "", repositories.DriverMemory:
		return fmt.Errorf("store driver %q keeps nothing between cellarctl runs; set STORE_DRIVER to sqlite, postgres, badger or dynamodb", repositories.DriverMemory)
	case repositories.DriverBadger:
		if opts.BadgerPath == "" {
			return errors.New("badger store without BADGER_PATH is in-memory; set BADGER_PATH")
		}
	case repositories.DriverSQLite:
		if isMemorySQLite(opts.DSN) {
			return fmt.Errorf("sqlite DSN %q is in-memory; use a database file", opts.DSN)
		}
	}
	return nil
}

func isMemorySQLite(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// sameStore reports whether a and b address the same data, however their
// paths are spelled.
func sameStore(a, b repositories.Options) bool {
	if a.Driver != b.Driver {
		return false
	}
	switch a.Driver {
	case repositories.DriverSQLite:
		return canonicalPath(a.DSN) == canonicalPath(b.DSN)
	case repositories.DriverPostgres:
		return a.DSN == b.DSN
	case repositories.DriverBadger:
		return canonicalPath(a.BadgerPath) == canonicalPath(b.BadgerPath)
	case repositories.DriverDynamoDB:
		return a.DynamoEndpoint == b.DynamoEndpoint && a.AWS.Region == b.AWS.Region &&
			a.CellarTable == b.CellarTable && a.PicklistTable == b.PicklistTable
	}
	return a == b
}

// canonicalPath turns a file path or sqlite file DSN into an absolute,
// cleaned path. The "file:" prefix and query parameters are dropped.
func canonicalPath(dsn string) string {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || path == ":memory:" {
		return dsn
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
