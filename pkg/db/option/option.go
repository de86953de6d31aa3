// Package option provides composable query modifiers applied on top of a
// GORM statement.
package option

import (
	"github.com/campuskit/campuskit/pkg/db/pagination"
	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type optionFunc func(*gorm.DB) *gorm.DB

func (f optionFunc) Apply(stmt *gorm.DB) *gorm.DB { return f(stmt) }

// WithPreload eagerly loads the navigation path (nested paths use dots,
// e.g. "ContactNumbers.Owner").
func WithPreload(path string, args ...any) QueryOption {
	return optionFunc(func(stmt *gorm.DB) *gorm.DB {
		return stmt.Preload(path, args...)
	})
}

func WithOrder(order string) QueryOption {
	return optionFunc(func(stmt *gorm.DB) *gorm.DB {
		return stmt.Order(order)
	})
}

func WithLimit(limit int) QueryOption {
	return optionFunc(func(stmt *gorm.DB) *gorm.DB {
		return stmt.Limit(limit)
	})
}

func WithOffset(offset int) QueryOption {
	return optionFunc(func(stmt *gorm.DB) *gorm.DB {
		return stmt.Offset(offset)
	})
}

// ApplyPagination translates a page window into offset/limit.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return optionFunc(func(stmt *gorm.DB) *gorm.DB {
		return stmt.Offset(page.Offset()).Limit(page.Limit())
	})
}
