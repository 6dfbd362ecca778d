package repositories

import (
	"context"
	"errors"
	"fmt"

	"cellar/internal/awsconf"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Store drivers selectable through configuration.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
	DriverDynamoDB = "dynamodb"
)

// Options selects and configures a store backend.
type Options struct {
	Driver string
	// DSN is used by the sqlite and postgres drivers.
	DSN string
	// BadgerPath is the badger directory; empty keeps it in memory.
	BadgerPath string

	AWS            awsconf.Options
	DynamoEndpoint string
	CellarTable    string
	PicklistTable  string
}

// Repositories bundles the two tables of one backend.
type Repositories struct {
	Beverages BeverageRepository
	Picklists PicklistRepository

	closers []func() error
}

// Close releases the backend connection.
func (r *Repositories) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open builds the repositories for opts.Driver.
func Open(ctx context.Context, opts Options) (*Repositories, error) {
	switch opts.Driver {
	case "", DriverMemory:
		return &Repositories{
			Beverages: NewMemoryBeverageRepository(),
			Picklists: NewMemoryPicklistRepository(),
		}, nil

	case DriverSQLite, DriverPostgres:
		db, err := OpenGORM(opts.Driver, opts.DSN)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		return &Repositories{
			Beverages: NewGORMBeverageRepository(db),
			Picklists: NewGORMPicklistRepository(db),
			closers:   []func() error{sqlDB.Close},
		}, nil

	case DriverBadger:
		db, err := OpenBadger(opts.BadgerPath)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Beverages: NewBadgerBeverageRepository(db),
			Picklists: NewBadgerPicklistRepository(db),
			closers:   []func() error{db.Close},
		}, nil

	case DriverDynamoDB:
		awsCfg, err := awsconf.Load(ctx, opts.AWS)
		if err != nil {
			return nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if opts.DynamoEndpoint != "" {
				o.BaseEndpoint = aws.String(opts.DynamoEndpoint)
			}
		})
		if opts.DynamoEndpoint != "" {
			if err := EnsureDynamoTables(ctx, client, opts.CellarTable, opts.PicklistTable); err != nil {
				return nil, err
			}
		}
		return &Repositories{
			Beverages: NewDynamoBeverageRepository(client, opts.CellarTable),
			Picklists: NewDynamoPicklistRepository(client, opts.PicklistTable),
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
}
