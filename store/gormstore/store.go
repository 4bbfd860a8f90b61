package gormstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kbukum/pageiter/database"
	"github.com/kbukum/pageiter/observability"
	"github.com/kbukum/pageiter/query"
)

// DefaultInsertBatch is the number of rows per INSERT statement in Insert.
const DefaultInsertBatch = 500

// Store reads records of model T through GORM. T must be a GORM model with
// a primary key, which orders pages when the query has no order.
type Store[T any] struct {
	db *database.DB
}

// New returns a store over db.
func New[T any](db *database.DB) *Store[T] {
	return &Store[T]{db: db}
}

// Migrate creates or updates the table of T.
func (s *Store[T]) Migrate() error {
	return s.db.AutoMigrate(new(T))
}

// Count returns the number of rows matching where.
func (s *Store[T]) Count(ctx context.Context, where query.Filter) (int, error) {
	var n int64
	err := query.ApplyToGorm(s.db.WithContext(ctx).Model(new(T)), where).Count(&n).Error
	if err != nil {
		return 0, database.FromDatabase(err, "count")
	}
	return int(n), nil
}

// Find returns the rows of q's window.
func (s *Store[T]) Find(ctx context.Context, q query.Query) ([]T, error) {
	tx := query.ApplyQuery(s.db.WithContext(ctx).Model(new(T)), q)
	if len(q.Order) == 0 {
		tx = tx.Order(clause.OrderByColumn{Column: clause.PrimaryColumn})
	}

	var out []T
	if err := tx.Find(&out).Error; err != nil {
		return nil, database.FromDatabase(err, "find")
	}
	return out, nil
}

// Insert writes records in one transaction.
func (s *Store[T]) Insert(ctx context.Context, records []T) error {
	if len(records) == 0 {
		return nil
	}
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.CreateInBatches(records, DefaultInsertBatch).Error
	})
	if err != nil {
		return database.FromDatabase(err, "insert")
	}
	return nil
}

// CheckHealth pings the database.
func (s *Store[T]) CheckHealth(ctx context.Context) observability.Health {
	return s.db.CheckHealth(ctx)
}
