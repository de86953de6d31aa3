package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/campuskit/campuskit/pkg/db/option"
	"github.com/campuskit/campuskit/pkg/result"
	"github.com/campuskit/campuskit/pkg/telemetry"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type store[T any, K comparable] struct {
	uow     *UnitOfWork
	name    string
	metrics *telemetry.Metrics
}

// ProvideStore binds a typed repository to a session. Repositories sharing
// one unit of work stage into the same Save batch, which is how services
// keep multi-entity invariants atomic.
func ProvideStore[T any, K comparable](uow *UnitOfWork) Repository[T, K] {
	return &store[T, K]{
		uow:     uow,
		name:    reflect.TypeOf((*T)(nil)).Elem().Name(),
		metrics: uow.metrics,
	}
}

func (r *store[T, K]) Unit() *UnitOfWork { return r.uow }

func (r *store[T, K]) session(ctx context.Context, trackChanges bool) *gorm.DB {
	stmt := r.uow.db.WithContext(ctx).Model(new(T))
	if trackChanges {
		stmt = stmt.Set(trackReadsSetting, r.uow)
	}
	return stmt
}

func (r *store[T, K]) List(ctx context.Context, spec *Specification[T], trackChanges bool) result.Result[[]*T] {
	r.metrics.ObserveOperation(r.name, "list")

	var entities []*T
	stmt := spec.Apply(r.session(ctx, trackChanges))
	if err := stmt.Find(&entities).Error; err != nil {
		return result.FromError[[]*T](err)
	}
	return result.Ok(entities)
}

func (r *store[T, K]) FirstOrDefault(ctx context.Context, spec *Specification[T], trackChanges bool) result.Result[*T] {
	r.metrics.ObserveOperation(r.name, "first")

	var entity T
	stmt := spec.Apply(r.session(ctx, trackChanges))
	if err := stmt.First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result.Ok[*T](nil)
		}
		return result.FromError[*T](err)
	}
	return result.Ok(&entity)
}

func (r *store[T, K]) FindByID(ctx context.Context, id K, trackChanges bool, includes ...string) result.Result[*T] {
	r.metrics.ObserveOperation(r.name, "find_by_id")

	stmt := r.session(ctx, trackChanges)
	for _, path := range includes {
		stmt = stmt.Preload(path)
	}

	var entity T
	if err := stmt.First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result.Ok[*T](nil)
		}
		return result.FromError[*T](err)
	}
	return result.Ok(&entity)
}

func (r *store[T, K]) Count(ctx context.Context, spec *Specification[T]) result.Result[int64] {
	r.metrics.ObserveOperation(r.name, "count")

	var count int64
	stmt := spec.applyFilters(r.session(ctx, false))
	if err := stmt.Count(&count).Error; err != nil {
		return result.FromError[int64](err)
	}
	return result.Ok(count)
}

func (r *store[T, K]) FindAll(ctx context.Context, trackChanges bool, opts ...option.QueryOption) *gorm.DB {
	stmt := r.session(ctx, trackChanges)
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	return stmt
}

func (r *store[T, K]) FindByCondition(ctx context.Context, trackChanges bool, query any, args ...any) *gorm.DB {
	return r.session(ctx, trackChanges).Where(query, args...)
}

func (r *store[T, K]) Exists(ctx context.Context, query any, args ...any) result.Result[bool] {
	var count int64
	if err := r.session(ctx, false).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return result.FromError[bool](err)
	}
	return result.Ok(count > 0)
}

func (r *store[T, K]) ExistsByID(ctx context.Context, id K) result.Result[bool] {
	return r.Exists(ctx, "id = ?", id)
}

func (r *store[T, K]) Create(ctx context.Context, entity *T) result.Result[*T] {
	_ = ctx
	r.metrics.ObserveOperation(r.name, "create")

	if messages := validateEntity(entity); len(messages) > 0 {
		return result.Fail[*T](messages...)
	}
	r.uow.registerAdded(entity)
	return result.Ok(entity)
}

func (r *store[T, K]) CreateRange(ctx context.Context, entities []*T) result.Result[[]*T] {
	_ = ctx
	r.metrics.ObserveOperation(r.name, "create_range")

	var messages []string
	for i, entity := range entities {
		for _, msg := range validateEntity(entity) {
			messages = append(messages, fmt.Sprintf("entities[%d]: %s", i, msg))
		}
	}
	if len(messages) > 0 {
		// Whole batch rejected; nothing is staged.
		return result.Fail[[]*T](messages...)
	}
	for _, entity := range entities {
		r.uow.registerAdded(entity)
	}
	return result.Ok(entities)
}

func (r *store[T, K]) Update(ctx context.Context, entity *T) result.Result[*T] {
	r.metrics.ObserveOperation(r.name, "update")

	if r.uow.State(entity) == StateAdded {
		// Still pending insert; the staged create carries current values.
		return result.Ok(entity)
	}
	if messages := validateEntity(entity); len(messages) > 0 {
		return result.Fail[*T](messages...)
	}
	if msg := r.checkKeyResolves(ctx, entity); msg != "" {
		return result.Fail[*T](msg)
	}
	r.uow.registerModified(entity)
	return result.Ok(entity)
}

func (r *store[T, K]) UpdateRange(ctx context.Context, entities []*T) result.Result[[]*T] {
	r.metrics.ObserveOperation(r.name, "update_range")

	var messages []string
	for i, entity := range entities {
		if r.uow.State(entity) == StateAdded {
			continue
		}
		for _, msg := range validateEntity(entity) {
			messages = append(messages, fmt.Sprintf("entities[%d]: %s", i, msg))
		}
		if msg := r.checkKeyResolves(ctx, entity); msg != "" {
			messages = append(messages, fmt.Sprintf("entities[%d]: %s", i, msg))
		}
	}
	if len(messages) > 0 {
		return result.Fail[[]*T](messages...)
	}
	for _, entity := range entities {
		if r.uow.State(entity) != StateAdded {
			r.uow.registerModified(entity)
		}
	}
	return result.Ok(entities)
}

func (r *store[T, K]) Delete(ctx context.Context, entity *T) result.Result[*T] {
	_ = ctx
	r.metrics.ObserveOperation(r.name, "delete")

	r.uow.registerDeleted(entity)
	return result.Ok(entity)
}

func (r *store[T, K]) DeleteByID(ctx context.Context, id K) result.Result[*T] {
	r.metrics.ObserveOperation(r.name, "delete_by_id")

	found := r.FindByID(ctx, id, false)
	if found.Failed() {
		return found
	}
	if found.Data == nil {
		return result.Failf[*T]("%s %v not found", r.name, id)
	}
	r.uow.registerDeleted(found.Data)
	return result.Ok(found.Data)
}

func (r *store[T, K]) RemoveRange(ctx context.Context, entities []*T) result.Result[[]*T] {
	_ = ctx
	r.metrics.ObserveOperation(r.name, "remove_range")

	for _, entity := range entities {
		r.uow.registerDeleted(entity)
	}
	return result.Ok(entities)
}

func (r *store[T, K]) Save(ctx context.Context) result.Result[int64] {
	return r.uow.Save(ctx)
}

// checkKeyResolves verifies the entity's key maps to an existing record.
// Returns a message for the validation failure, or "".
func (r *store[T, K]) checkKeyResolves(ctx context.Context, entity *T) string {
	keyed, ok := any(entity).(Entity[K])
	if !ok {
		return ""
	}
	var zero K
	id := keyed.PrimaryKey()
	if id == zero {
		return fmt.Sprintf("%s has no key; create it instead", r.name)
	}
	exists := r.ExistsByID(ctx, id)
	if exists.Failed() {
		return exists.Message()
	}
	if !exists.Data {
		return fmt.Sprintf("%s %v does not exist", r.name, id)
	}
	return ""
}

func validateEntity(entity any) []string {
	err := validate.Struct(entity)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fmt.Sprintf("%s failed validation on %q", fe.Field(), fe.Tag()))
	}
	return messages
}
