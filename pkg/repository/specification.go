package repository

import (
	"github.com/campuskit/campuskit/pkg/db/pagination"
	"gorm.io/gorm"
)

// Specification is a declarative query descriptor: filter conditions, eager
// include paths, ordering and an optional page window. It never executes
// anything itself; the repository translates it onto a statement. Build one
// per query and treat it as immutable once handed to the repository.
//
// Filters are expressed in the query DSL (condition string + args) rather
// than as host-language predicates so they translate to SQL.
type Specification[T any] struct {
	conds    []condition
	includes []include
	order    string
	skip     int
	take     int
}

type condition struct {
	query any
	args  []any
}

type include struct {
	path string
	args []any
}

func NewSpecification[T any]() *Specification[T] {
	return &Specification[T]{skip: -1, take: -1}
}

// Where adds a filter condition. Multiple conditions are ANDed.
func (s *Specification[T]) Where(query any, args ...any) *Specification[T] {
	s.conds = append(s.conds, condition{query: query, args: args})
	return s
}

// Include declares a navigation path to eager-load. Chained includes use
// dotted paths: Include("ContactNumbers") then
// Include("ContactNumbers.Owner") loads two levels.
func (s *Specification[T]) Include(path string, args ...any) *Specification[T] {
	s.includes = append(s.includes, include{path: path, args: args})
	return s
}

// OrderBy sets the ordering clause. Required for Skip/Take to yield
// deterministic pages.
func (s *Specification[T]) OrderBy(order string) *Specification[T] {
	s.order = order
	return s
}

// Skip sets the number of rows to skip. Negative values are ignored.
func (s *Specification[T]) Skip(n int) *Specification[T] {
	if n >= 0 {
		s.skip = n
	}
	return s
}

// Take caps the number of rows returned. Negative values are ignored.
func (s *Specification[T]) Take(n int) *Specification[T] {
	if n >= 0 {
		s.take = n
	}
	return s
}

// Page sets skip/take from a 1-based page window.
func (s *Specification[T]) Page(p pagination.Pagination) *Specification[T] {
	return s.Skip(p.Offset()).Take(p.Limit())
}

// Apply translates the specification onto stmt.
func (s *Specification[T]) Apply(stmt *gorm.DB) *gorm.DB {
	if s == nil {
		return stmt
	}
	for _, c := range s.conds {
		stmt = stmt.Where(c.query, c.args...)
	}
	for _, inc := range s.includes {
		stmt = stmt.Preload(inc.path, inc.args...)
	}
	if s.order != "" {
		stmt = stmt.Order(s.order)
	}
	if s.skip >= 0 {
		stmt = stmt.Offset(s.skip)
	}
	if s.take >= 0 {
		stmt = stmt.Limit(s.take)
	}
	return stmt
}

// applyFilters applies only the filter conditions; Count must ignore
// includes, ordering and the page window.
func (s *Specification[T]) applyFilters(stmt *gorm.DB) *gorm.DB {
	if s == nil {
		return stmt
	}
	for _, c := range s.conds {
		stmt = stmt.Where(c.query, c.args...)
	}
	return stmt
}
