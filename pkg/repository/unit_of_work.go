package repository

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/campuskit/campuskit/pkg/db"
	"github.com/campuskit/campuskit/pkg/result"
	"github.com/campuskit/campuskit/pkg/telemetry"
	"github.com/campuskit/campuskit/pkg/tenantctx"
	"gorm.io/gorm"
)

// EntityState tracks a staged entity through the session. Save is the only
// transition back to Unchanged.
type EntityState int

const (
	StateUnchanged EntityState = iota
	StateAdded
	StateModified
	StateDeleted
)

func (s EntityState) String() string {
	switch s {
	case StateAdded:
		return "added"
	case StateModified:
		return "modified"
	case StateDeleted:
		return "deleted"
	default:
		return "unchanged"
	}
}

type stagedOp struct {
	state  EntityState
	entity any
}

// UnitOfWork is the session-scoped commit boundary. It accumulates staged
// creates/updates/deletes plus snapshots of tracked reads, and commits
// everything in one transaction on Save. Not safe for concurrent use by
// multiple in-flight operations: one unit of work per logical request.
type UnitOfWork struct {
	db      *gorm.DB
	now     func() time.Time
	metrics *telemetry.Metrics

	mu      sync.Mutex
	pending []*stagedOp
	states  map[any]*stagedOp // staged entity pointer -> its op
	tracked map[any]any       // tracked entity pointer -> snapshot value
}

type UnitOfWorkOption func(*UnitOfWork)

// WithNow overrides the session clock used for audit stamps.
func WithNow(now func() time.Time) UnitOfWorkOption {
	return func(u *UnitOfWork) { u.now = now }
}

// WithMetrics attaches core telemetry. Nil is fine.
func WithMetrics(m *telemetry.Metrics) UnitOfWorkOption {
	return func(u *UnitOfWork) { u.metrics = m }
}

// NewUnitOfWork opens a fresh session over conn.
func NewUnitOfWork(conn *gorm.DB, opts ...UnitOfWorkOption) *UnitOfWork {
	u := &UnitOfWork{
		db:      conn,
		now:     time.Now,
		states:  make(map[any]*stagedOp),
		tracked: make(map[any]any),
	}
	for _, opt := range opts {
		opt(u)
	}
	registerTrackReadsCallback(conn)
	return u
}

// DB exposes the session connection for read statements.
func (u *UnitOfWork) DB() *gorm.DB { return u.db }

// State reports the staged state of entity within this session.
func (u *UnitOfWork) State(entity any) EntityState {
	u.mu.Lock()
	defer u.mu.Unlock()
	if op, ok := u.states[entity]; ok {
		return op.state
	}
	return StateUnchanged
}

// Pending returns the number of staged mutations (tracked-read diffs are
// computed at Save time and not counted here).
func (u *UnitOfWork) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, op := range u.pending {
		if op.state != StateUnchanged {
			n++
		}
	}
	return n
}

// registerAdded stages entity for insertion. Idempotent per pointer.
func (u *UnitOfWork) registerAdded(entity any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.states[entity]; ok {
		return
	}
	op := &stagedOp{state: StateAdded, entity: entity}
	u.pending = append(u.pending, op)
	u.states[entity] = op
}

// registerModified stages entity as dirty. Calling it on an Added-but-unsaved
// entity is a no-op state-wise: the pending insert already carries the
// current field values.
func (u *UnitOfWork) registerModified(entity any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if op, ok := u.states[entity]; ok {
		if op.state == StateAdded || op.state == StateModified {
			return
		}
	}
	op := &stagedOp{state: StateModified, entity: entity}
	u.pending = append(u.pending, op)
	u.states[entity] = op
}

// registerDeleted stages entity for removal. Deleting an Added-but-unsaved
// entity cancels the pending insert instead of issuing a delete.
func (u *UnitOfWork) registerDeleted(entity any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if op, ok := u.states[entity]; ok {
		if op.state == StateAdded {
			op.state = StateUnchanged // cancelled insert, skipped at Save
			delete(u.states, entity)
			return
		}
		op.state = StateDeleted
		return
	}
	op := &stagedOp{state: StateDeleted, entity: entity}
	u.pending = append(u.pending, op)
	u.states[entity] = op
	delete(u.tracked, entity)
}

// track snapshots a read entity so in-place mutations are detected at Save.
func (u *UnitOfWork) track(entity any) {
	v := reflect.ValueOf(entity)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, staged := u.states[entity]; staged {
		return
	}
	u.tracked[entity] = snapshot(v.Elem())
}

// dirtyTracked returns tracked entities whose current value differs from the
// snapshot taken at read time. Caller holds u.mu.
func (u *UnitOfWork) dirtyTracked() []any {
	var dirty []any
	for entity, snapshot := range u.tracked {
		if _, staged := u.states[entity]; staged {
			continue
		}
		current := reflect.ValueOf(entity).Elem().Interface()
		if !reflect.DeepEqual(snapshot, current) {
			dirty = append(dirty, entity)
		}
	}
	return dirty
}

// Save commits all staged mutations and tracked-read diffs as one atomic
// transaction. Staged mutations execute in staging order, then tracked-read
// diffs flush after them; callers that must satisfy per-statement constraints
// (partial unique indexes) stage their writes in the order the store needs.
// On any store rejection the whole batch rolls back; no partial commit is
// observable. Cancellation aborts before commit and yields a distinct
// cancelled result.
func (u *UnitOfWork) Save(ctx context.Context) result.Result[int64] {
	started := time.Now()

	u.mu.Lock()
	ops := make([]*stagedOp, 0, len(u.pending))
	for _, op := range u.pending {
		if op.state != StateUnchanged {
			ops = append(ops, op)
		}
	}
	for _, entity := range u.dirtyTracked() {
		ops = append(ops, &stagedOp{state: StateModified, entity: entity})
	}
	u.mu.Unlock()

	if len(ops) == 0 {
		return result.Ok[int64](0)
	}

	now := u.now().UTC()
	actor := tenantctx.Actor(ctx)

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			if auditable, ok := op.entity.(Auditable); ok && op.state != StateDeleted {
				auditable.Touch(now, actor, op.state == StateAdded)
			}
			switch op.state {
			case StateAdded:
				if err := tx.Create(op.entity).Error; err != nil {
					return err
				}
			case StateModified:
				// UpdatedAt was just touched, so an existing row always
				// reports at least one affected row.
				res := tx.Save(op.entity)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return fmt.Errorf("update %T: no record matches its key", op.entity)
				}
			case StateDeleted:
				if err := tx.Delete(op.entity).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		u.metrics.ObserveSave("failed", len(ops), time.Since(started))
		if db.IsConstraintErr(err) {
			return result.Failf[int64]("save rejected by store: %v", err)
		}
		return result.FromError[int64](err)
	}

	u.mu.Lock()
	u.pending = u.pending[:0]
	u.states = make(map[any]*stagedOp)
	for entity := range u.tracked {
		u.tracked[entity] = snapshot(reflect.ValueOf(entity).Elem())
	}
	for _, op := range ops {
		if op.state == StateDeleted {
			delete(u.tracked, op.entity)
		}
	}
	u.mu.Unlock()

	u.metrics.ObserveSave("ok", len(ops), time.Since(started))
	return result.Ok(int64(len(ops)))
}
