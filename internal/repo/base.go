// Package repo holds the gorm handle shared by the catalog, pricing and
// vendor repositories.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by repositories that read and write through one handle,
// either the pool or a caller's transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB scopes the handle to ctx. A nil ctx returns the bare handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Bind moves the repository onto tx so its writes join the caller's
// transaction. A nil tx keeps the current handle.
func (b Base) Bind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}
