// Package repository is the sole gateway between domain code and the
// persistence store. A generic store parametrized over an entity type and
// its key type executes declarative Specifications, and a session-scoped
// UnitOfWork batches mutations until an explicit Save.
package repository

import (
	"context"

	"github.com/campuskit/campuskit/pkg/db/option"
	"github.com/campuskit/campuskit/pkg/result"
	"gorm.io/gorm"
)

// Repository exposes uniform data access for one entity family. Expected
// failure modes come back as failed Results; a read that matches nothing is
// a success with a nil payload. Mutations are staged into the session's
// unit of work and only persisted by Save.
type Repository[T any, K comparable] interface {
	// List returns entities matching spec (nil means all). With
	// trackChanges, returned entities are attached to the session so
	// in-place mutations persist on the next Save.
	List(ctx context.Context, spec *Specification[T], trackChanges bool) result.Result[[]*T]

	// FirstOrDefault returns the first match, or a success with nil payload
	// when nothing matches.
	FirstOrDefault(ctx context.Context, spec *Specification[T], trackChanges bool) result.Result[*T]

	// FindByID resolves one entity by key with optional eager-load paths.
	// A missing id is a success with nil payload.
	FindByID(ctx context.Context, id K, trackChanges bool, includes ...string) result.Result[*T]

	// Count counts entities matching spec (nil means all), ignoring the
	// spec's includes, ordering and page window.
	Count(ctx context.Context, spec *Specification[T]) result.Result[int64]

	// FindAll returns a lazily-evaluated statement scoped to the entity
	// type for further in-process composition.
	FindAll(ctx context.Context, trackChanges bool, opts ...option.QueryOption) *gorm.DB

	// FindByCondition is FindAll narrowed by a filter condition.
	FindByCondition(ctx context.Context, trackChanges bool, query any, args ...any) *gorm.DB

	// Exists reports whether any entity matches the condition without
	// materializing it.
	Exists(ctx context.Context, query any, args ...any) result.Result[bool]

	// ExistsByID reports whether the key resolves to a record.
	ExistsByID(ctx context.Context, id K) result.Result[bool]

	// Create stages entity for insertion and returns it; validation
	// failures are reported without staging.
	Create(ctx context.Context, entity *T) result.Result[*T]

	// CreateRange stages a batch atomically: if any entity fails
	// validation, none are staged and the aggregated messages are returned.
	CreateRange(ctx context.Context, entities []*T) result.Result[[]*T]

	// Update stages entity as modified. It fails with a validation-kind
	// result when the entity's key does not resolve to an existing record.
	// Updating an Added-but-unsaved entity is a no-op state-wise.
	Update(ctx context.Context, entity *T) result.Result[*T]

	// UpdateRange is the atomic batch variant of Update.
	UpdateRange(ctx context.Context, entities []*T) result.Result[[]*T]

	// Delete stages entity for removal.
	Delete(ctx context.Context, entity *T) result.Result[*T]

	// DeleteByID resolves the entity by key first and fails with a
	// not-found result when absent.
	DeleteByID(ctx context.Context, id K) result.Result[*T]

	// RemoveRange stages a batch of removals.
	RemoveRange(ctx context.Context, entities []*T) result.Result[[]*T]

	// Save commits everything staged in the session as one atomic unit.
	Save(ctx context.Context) result.Result[int64]

	// Unit exposes the session this repository stages into.
	Unit() *UnitOfWork
}
