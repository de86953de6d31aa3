package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/campuskit/campuskit/internal/clock"
	"github.com/campuskit/campuskit/internal/contact/domain"
	"github.com/campuskit/campuskit/pkg/repository"
	"github.com/campuskit/campuskit/pkg/result"
	"github.com/campuskit/campuskit/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type member[T any] interface {
	*T
	domain.Member
}

// manager enforces the single-default invariant for one member family:
// at most one default per owner, exactly one whenever the owner has members.
// Every mutation batches its rebalancing writes and the triggering write
// into a single Save so no observer sees two defaults or a lost default.
type manager[T any, PT member[T]] struct {
	kind      string
	conn      *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	metrics   *telemetry.Metrics
	tracer    trace.Tracer
	mutations metric.Int64Counter
}

func newManager[T any, PT member[T]](kind string, conn *gorm.DB, log *zap.Logger, clk clock.Clock, metrics *telemetry.Metrics, tracer trace.Tracer, mutations metric.Int64Counter) *manager[T, PT] {
	return &manager[T, PT]{
		kind:      kind,
		conn:      conn,
		log:       log.Named(kind),
		clock:     clk,
		metrics:   metrics,
		tracer:    tracer,
		mutations: mutations,
	}
}

// session opens a fresh unit of work; one per logical operation, never
// shared across requests.
func (m *manager[T, PT]) session() (*repository.UnitOfWork, repository.Repository[T, snowflake.ID]) {
	uow := repository.NewUnitOfWork(m.conn,
		repository.WithNow(m.clock.Now),
		repository.WithMetrics(m.metrics),
	)
	return uow, repository.ProvideStore[T, snowflake.ID](uow)
}

func (m *manager[T, PT]) ownerSpec(ownerID snowflake.ID, ownerType domain.OwnerType) *repository.Specification[T] {
	return repository.NewSpecification[T]().
		Where("owner_id = ? AND owner_type = ?", ownerID, ownerType)
}

// List returns an owner's members, default first, untracked.
func (m *manager[T, PT]) List(ctx context.Context, ownerID snowflake.ID, ownerType domain.OwnerType) result.Result[[]*T] {
	if ownerID == 0 {
		return result.Fail[[]*T](domain.ErrInvalidOwner.Error())
	}
	_, repo := m.session()
	return repo.List(ctx, m.ownerSpec(ownerID, ownerType).OrderBy("is_default desc, id asc"), false)
}

// Create persists a new member. A requested default demotes every current
// default of the owner in the same Save; the owner's lone member is always
// forced default regardless of the request.
func (m *manager[T, PT]) Create(ctx context.Context, entity PT) result.Result[PT] {
	ctx, span := m.tracer.Start(ctx, m.kind+".create")
	defer span.End()

	ownerID, ownerType := entity.OwnerKey()
	if ownerID == 0 {
		return result.Fail[PT](domain.ErrInvalidOwner.Error())
	}

	_, repo := m.session()

	siblings := repo.List(ctx, m.ownerSpec(ownerID, ownerType), false)
	if siblings.Failed() {
		return result.Carry[PT](siblings)
	}

	switch {
	case entity.IsDefault():
		// Demotions are staged ahead of the insert so the store never sees
		// two defaults within one statement; the partial unique index on
		// (owner_id, owner_type) is checked per statement, not per
		// transaction.
		for _, sibling := range siblings.Data {
			if !PT(sibling).IsDefault() {
				continue
			}
			PT(sibling).SetDefault(false)
			if demoted := repo.Update(ctx, sibling); demoted.Failed() {
				return result.Carry[PT](demoted)
			}
			m.metrics.ObserveDefaultClear(m.kind)
		}
	case len(siblings.Data) == 0:
		// A lone member is always the default.
		entity.SetDefault(true)
		m.metrics.ObservePromotion(m.kind, "sole_member")
	}

	if created := repo.Create(ctx, (*T)(entity)); created.Failed() {
		return result.Carry[PT](created)
	}
	if saved := repo.Save(ctx); saved.Failed() {
		return result.Carry[PT](saved)
	}

	m.countMutation(ctx, "create")
	return result.Ok(entity)
}

// Update applies an already-mutated member. Setting the default flag demotes
// every other default of the owner within the same Save. Clearing the flag
// on what was the sole default is deliberately not repaired here.
func (m *manager[T, PT]) Update(ctx context.Context, entity PT) result.Result[PT] {
	ctx, span := m.tracer.Start(ctx, m.kind+".update")
	defer span.End()

	ownerID, ownerType := entity.OwnerKey()
	if ownerID == 0 {
		return result.Fail[PT](domain.ErrInvalidOwner.Error())
	}

	_, repo := m.session()

	if entity.IsDefault() {
		others := repo.List(ctx, m.ownerSpec(ownerID, ownerType).
			Where("id <> ?", entity.PrimaryKey()).
			Where("is_default = ?", true), false)
		if others.Failed() {
			return result.Carry[PT](others)
		}
		// Demote first; the promoting update must run against a store with
		// no other default for the owner.
		for _, other := range others.Data {
			PT(other).SetDefault(false)
			if demoted := repo.Update(ctx, other); demoted.Failed() {
				return result.Carry[PT](demoted)
			}
			m.metrics.ObserveDefaultClear(m.kind)
		}
	}

	if updated := repo.Update(ctx, (*T)(entity)); updated.Failed() {
		return result.Carry[PT](updated)
	}
	if saved := repo.Save(ctx); saved.Failed() {
		return result.Carry[PT](saved)
	}

	m.countMutation(ctx, "update")
	return result.Ok(entity)
}

// Delete removes a member by id. When the removed member was the owner's
// default and others remain, the lowest-id survivor is promoted in the same
// Save; removing a non-default member never rebalances.
func (m *manager[T, PT]) Delete(ctx context.Context, id snowflake.ID) result.Result[PT] {
	ctx, span := m.tracer.Start(ctx, m.kind+".delete")
	defer span.End()

	_, repo := m.session()

	found := repo.FindByID(ctx, id, false)
	if found.Failed() {
		return result.Carry[PT](found)
	}
	if found.Data == nil {
		return result.Failf[PT]("%s %d not found", m.kind, id)
	}

	entity := PT(found.Data)
	if deleted := repo.Delete(ctx, found.Data); deleted.Failed() {
		return result.Carry[PT](deleted)
	}

	if entity.IsDefault() {
		ownerID, ownerType := entity.OwnerKey()
		successors := repo.List(ctx, m.ownerSpec(ownerID, ownerType).
			Where("id <> ?", id).
			OrderBy("id asc").
			Take(1), false)
		if successors.Failed() {
			return result.Carry[PT](successors)
		}
		if len(successors.Data) > 0 {
			// Staged after the delete so the old default row is gone by the
			// time the promotion hits the partial unique index.
			PT(successors.Data[0]).SetDefault(true)
			if promoted := repo.Update(ctx, successors.Data[0]); promoted.Failed() {
				return result.Carry[PT](promoted)
			}
			m.metrics.ObservePromotion(m.kind, "default_deleted")
			m.log.Info("promoting successor default",
				zap.Int64("deleted_id", int64(id)),
				zap.Int64("promoted_id", int64(PT(successors.Data[0]).PrimaryKey())),
			)
		}
	}
	if saved := repo.Save(ctx); saved.Failed() {
		return result.Carry[PT](saved)
	}

	m.countMutation(ctx, "delete")
	return result.Ok(entity)
}

func (m *manager[T, PT]) countMutation(ctx context.Context, op string) {
	if m.mutations == nil {
		return
	}
	m.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", m.kind),
		attribute.String("operation", op),
	))
}
