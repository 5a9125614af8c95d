package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrDuplicado is returned when an insert hits a unique constraint.
	ErrDuplicado = errors.New("registro duplicado")
	// ErrEnUso is returned when a delete is blocked by a RESTRICT foreign key.
	ErrEnUso = errors.New("registro referenciado")
)

const (
	sqlstateUniqueViolation     = "23505"
	sqlstateForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// mapPgError translates constraint violations into repository sentinels and
// passes every other error through.
func mapPgError(err error) error {
	switch pgCode(err) {
	case sqlstateUniqueViolation:
		return ErrDuplicado
	case sqlstateForeignKeyViolation:
		return ErrEnUso
	}
	return err
}

// Transactor runs fn inside one database transaction. fn's error rolls it back.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct{ db *gorm.DB }

func NewTransactor(db *gorm.DB) Transactor { return &gormTransactor{db: db} }

func (t *gormTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

// conn picks the caller's transaction when present, else the pool.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
