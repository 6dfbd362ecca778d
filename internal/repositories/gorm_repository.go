package repositories

import (
	"context"
	"errors"
	"fmt"

	"cellar/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// GORMRepository is a GORM implementation of Repository. keyColumns maps a
// key onto the primary key columns of T's table.
type GORMRepository[K any, T any] struct {
	db         *gorm.DB
	keyColumns func(K) map[string]any
}

// NewGORMRepository creates a new instance of GORMRepository.
func NewGORMRepository[K any, T any](db *gorm.DB, keyColumns func(K) map[string]any) *GORMRepository[K, T] {
	return &GORMRepository[K, T]{
		db:         db,
		keyColumns: keyColumns,
	}
}

// NewGORMBeverageRepository stores records in the "cellar" table.
func NewGORMBeverageRepository(db *gorm.DB) *GORMRepository[models.RecordKey, models.BeverageRecord] {
	return NewGORMRepository[models.RecordKey, models.BeverageRecord](db, func(k models.RecordKey) map[string]any {
		return map[string]any{"id": k.ID, "location": k.Location}
	})
}

// NewGORMPicklistRepository stores picklists in the "cellar_picklists" table.
func NewGORMPicklistRepository(db *gorm.DB) *GORMRepository[string, models.Picklist] {
	return NewGORMRepository[string, models.Picklist](db, func(name string) map[string]any {
		return map[string]any{"list_name": name}
	})
}

// OpenGORM connects to sqlite or postgres and migrates the cellar tables.
func OpenGORM(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	if err := db.AutoMigrate(&models.BeverageRecord{}, &models.Picklist{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return db, nil
}

// Get retrieves a single item by key.
func (r *GORMRepository[K, T]) Get(ctx context.Context, key K) (*T, error) {
	var item T
	if err := r.db.WithContext(ctx).Where(r.keyColumns(key)).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr("get", err)
	}
	return &item, nil
}

// Scan retrieves every item of the table.
func (r *GORMRepository[K, T]) Scan(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.db.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, storeErr("scan", err)
	}
	return items, nil
}

// Put inserts item or overwrites every column of the row with its key.
func (r *GORMRepository[K, T]) Put(ctx context.Context, item *T) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(item)
	if res.Error != nil {
		return storeErr("put", res.Error)
	}
	return nil
}

// Delete removes the row with key.
func (r *GORMRepository[K, T]) Delete(ctx context.Context, key K) error {
	res := r.db.WithContext(ctx).Where(r.keyColumns(key)).Delete(new(T))
	if res.Error != nil {
		return storeErr("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
