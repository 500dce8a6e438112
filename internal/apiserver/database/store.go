package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Store implements Database on top of a gorm connection. The SQL it
// issues is driver-neutral; the per-driver constructors only differ in
// how they open the connection.
type Store struct {
	db *gorm.DB
}

// newStore migrates the schema and wraps the connection.
func newStore(gormDB *gorm.DB) (*Store, error) {
	if err := gormDB.AutoMigrate(
		&Company{},
		&User{},
		&CompanyViewer{},
		&MagicLink{},
		&DefectTag{},
		&Inspection{},
		&InspectionPart{},
		&InspectionItem{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: gormDB}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction runs fn in a transaction, reusing one already on the
// context so nested calls join instead of deadlocking.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := TransactionFromContext(ctx); tx != nil {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ContextWithTransaction(ctx, tx))
	})
}
