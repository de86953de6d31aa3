package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/campuskit/campuskit/pkg/db/pagination"
	"github.com/campuskit/campuskit/pkg/tenantctx"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type widget struct {
	ID      int64             `gorm:"primaryKey"`
	Name    string            `gorm:"not null" validate:"required"`
	Tier    string            `gorm:"size:32"`
	Qty     int
	Primary bool              `gorm:"column:is_primary;not null;default:false"`
	Meta    datatypes.JSONMap `gorm:"type:json"`

	Audit
}

func (w widget) PrimaryKey() int64 { return w.ID }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return conn
}

func newSession(t *testing.T) (*UnitOfWork, Repository[widget, int64]) {
	t.Helper()
	uow := NewUnitOfWork(newTestDB(t))
	return uow, ProvideStore[widget, int64](uow)
}

func seedWidgets(t *testing.T, conn *gorm.DB, widgets ...*widget) {
	t.Helper()
	uow := NewUnitOfWork(conn)
	repo := ProvideStore[widget, int64](uow)
	created := repo.CreateRange(context.Background(), widgets)
	require.True(t, created.Succeeded, created.Messages)
	saved := repo.Save(context.Background())
	require.True(t, saved.Succeeded, saved.Messages)
}

func TestStore_CreateAndSave(t *testing.T) {
	_, repo := newSession(t)
	ctx := tenantctx.WithActor(context.Background(), "tester")

	created := repo.Create(ctx, &widget{ID: 1, Name: "anvil", Tier: "basic"})
	require.True(t, created.Succeeded, created.Messages)

	saved := repo.Save(ctx)
	require.True(t, saved.Succeeded, saved.Messages)
	assert.EqualValues(t, 1, saved.Data)

	found := repo.FindByID(ctx, 1, false)
	require.True(t, found.Succeeded)
	require.NotNil(t, found.Data)
	assert.Equal(t, "anvil", found.Data.Name)
	assert.Equal(t, "tester", found.Data.CreatedBy)
	assert.False(t, found.Data.CreatedAt.IsZero())
}

func TestStore_CreateRejectsInvalidEntity(t *testing.T) {
	_, repo := newSession(t)

	created := repo.Create(context.Background(), &widget{ID: 1})
	assert.True(t, created.Failed())
	assert.Contains(t, created.Message(), "Name")

	saved := repo.Save(context.Background())
	require.True(t, saved.Succeeded)
	assert.EqualValues(t, 0, saved.Data, "nothing should have been staged")
}

func TestStore_FindByID_MissingIsSuccessfulNil(t *testing.T) {
	_, repo := newSession(t)

	found := repo.FindByID(context.Background(), 42, false)
	assert.True(t, found.Succeeded)
	assert.Nil(t, found.Data)

	first := repo.FirstOrDefault(context.Background(), NewSpecification[widget]().Where("name = ?", "ghost"), false)
	assert.True(t, first.Succeeded)
	assert.Nil(t, first.Data)
}

func TestStore_TrackedReadPersistsInPlaceMutation(t *testing.T) {
	uow, repo := newSession(t)
	ctx := context.Background()
	seedWidgets(t, uow.DB(), &widget{ID: 1, Name: "anvil", Qty: 1})

	found := repo.FindByID(ctx, 1, true)
	require.True(t, found.Succeeded)
	require.NotNil(t, found.Data)

	found.Data.Qty = 7
	saved := repo.Save(ctx)
	require.True(t, saved.Succeeded, saved.Messages)
	assert.EqualValues(t, 1, saved.Data)

	_, fresh := newTestSessionOver(t, uow.DB())
	reloaded := fresh.FindByID(ctx, 1, false)
	require.NotNil(t, reloaded.Data)
	assert.Equal(t, 7, reloaded.Data.Qty)
}

func TestStore_UntrackedReadMutationIsDiscarded(t *testing.T) {
	uow, repo := newSession(t)
	ctx := context.Background()
	seedWidgets(t, uow.DB(), &widget{ID: 1, Name: "anvil", Qty: 1})

	found := repo.FindByID(ctx, 1, false)
	require.NotNil(t, found.Data)
	found.Data.Qty = 99

	saved := repo.Save(ctx)
	require.True(t, saved.Succeeded)
	assert.EqualValues(t, 0, saved.Data)

	reloaded := repo.FindByID(ctx, 1, false)
	require.NotNil(t, reloaded.Data)
	assert.Equal(t, 1, reloaded.Data.Qty)
}

func TestStore_TrackedList_DetectsOnlyDirtyEntities(t *testing.T) {
	uow, repo := newSession(t)
	ctx := context.Background()
	seedWidgets(t, uow.DB(),
		&widget{ID: 1, Name: "anvil", Qty: 1},
		&widget{ID: 2, Name: "bolt", Qty: 2},
		&widget{ID: 3, Name: "cog", Qty: 3},
	)

	listed := repo.List(ctx, NewSpecification[widget]().OrderBy("id asc"), true)
	require.True(t, listed.Succeeded)
	require.Len(t, listed.Data, 3)

	listed.Data[1].Qty = 20
	saved := repo.Save(ctx)
	require.True(t, saved.Succeeded)
	assert.EqualValues(t, 1, saved.Data, "only the mutated entity should flush")

	reloaded := repo.FindByID(ctx, 2, false)
	require.NotNil(t, reloaded.Data)
	assert.Equal(t, 20, reloaded.Data.Qty)
}

func TestStore_TrackedReadDetectsMapFieldMutation(t *testing.T) {
	uow, repo := newSession(t)
	ctx := context.Background()
	seedWidgets(t, uow.DB(), &widget{ID: 1, Name: "anvil", Meta: datatypes.JSONMap{"grade": "A"}})

	found := repo.FindByID(ctx, 1, true)
	require.True(t, found.Succeeded)
	require.NotNil(t, found.Data)

	// Mutating through the shared map must still register as a diff; the
	// snapshot cannot alias the entity's backing storage.
	found.Data.Meta["grade"] = "B"
	saved := repo.Save(ctx)
	require.True(t, saved.Succeeded, saved.Messages)
	assert.EqualValues(t, 1, saved.Data)

	_, fresh := newTestSessionOver(t, uow.DB())
	reloaded := fresh.FindByID(ctx, 1, false)
	require.NotNil(t, reloaded.Data)
	assert.Equal(t, "B", reloaded.Data.Meta["grade"])
}

func TestStore_FindAll_LazyStatementTracksAtExecution(t *testing.T) {
	uow, repo := newSession(t)
	ctx := context.Background()
	seedWidgets(t, uow.DB(), &widget{ID: 1, Name: "anvil", Tier: "basic"})

	var out []*widget
	stmt := repo.FindAll(ctx, true).Where("tier = ?", "basic")
	require.NoError(t, stmt.Find(&out).Error)
	require.Len(t, out, 1)

	out[0].Tier = "premium"
	saved := repo.Save(ctx)
	require.True(t, saved.Succeeded)
	assert.EqualValues(t, 1, saved.Data)
}

func TestStore_Update_MissingKeyFails(t *testing.T) {
	_, repo := newSession(t)

	updated := repo.Update(context.Background(), &widget{ID: 42, Name: "phantom"})
	assert.True(t, updated.Failed())
	assert.Contains(t, updated.Message(), "does not exist")

	updated = repo.Update(context.Background(), &widget{Name: "keyless"})
	assert.True(t, updated.Failed())
	assert.Contains(t, updated.Message(), "no key")
}

func TestStore_UpdateOnPendingAddIsNoOp(t *testing.T) {
	uow, repo := newSession(t)
	ctx := context.Background()

	entity := &widget{ID: 1, Name: "anvil"}
	require.True(t, repo.Create(ctx, entity).Succeeded)
	require.Equal(t, StateAdded, uow.State(entity))

	entity.Qty = 5
	updated := repo.Update(ctx, entity)
	require.True(t, updated.Succeeded)
	assert.Equal(t, StateAdded, uow.State(entity), "pending insert already carries current values")

	saved := repo.Save(ctx)
	require.True(t, saved.Succeeded)
	assert.EqualValues(t, 1, saved.Data)
}

func TestStore_CreateRange_AllOrNothing(t *testing.T) {
	uow, repo := newSession(t)
	ctx := context.Background()

	batch := []*widget{
		{ID: 1, Name: "anvil"},
		{ID: 2}, // missing name
		{ID: 3, Name: "cog"},
	}
	created := repo.CreateRange(ctx, batch)
	require.True(t, created.Failed())
	assert.Contains(t, created.Message(), "entities[1]")
	assert.Equal(t, 0, uow.Pending())

	saved := repo.Save(ctx)
	require.True(t, saved.Succeeded)
	assert.EqualValues(t, 0, saved.Data)

	count := repo.Count(ctx, NewSpecification[widget]())
	require.True(t, count.Succeeded)
	assert.EqualValues(t, 0, count.Data, "no partial batch may be observable")
}

func TestStore_DeleteByID(t *testing.T) {
	uow, repo := newSession(t)
	ctx := context.Background()
	seedWidgets(t, uow.DB(), &widget{ID: 1, Name: "anvil"})

	t.Run("missing id fails", func(t *testing.T) {
		deleted := repo.DeleteByID(ctx, 42)
		assert.True(t, deleted.Failed())
		assert.Contains(t, deleted.Message(), "not found")
	})

	t.Run("existing id is removed on save", func(t *testing.T) {
		deleted := repo.DeleteByID(ctx, 1)
		require.True(t, deleted.Succeeded, deleted.Messages)

		saved := repo.Save(ctx)
		require.True(t, saved.Succeeded)

		found := repo.FindByID(ctx, 1, false)
		require.True(t, found.Succeeded)
		assert.Nil(t, found.Data)
	})
}

func TestUnitOfWork_DeleteCancelsPendingAdd(t *testing.T) {
	uow, repo := newSession(t)
	ctx := context.Background()

	entity := &widget{ID: 1, Name: "anvil"}
	require.True(t, repo.Create(ctx, entity).Succeeded)
	require.True(t, repo.Delete(ctx, entity).Succeeded)
	assert.Equal(t, StateUnchanged, uow.State(entity))

	saved := repo.Save(ctx)
	require.True(t, saved.Succeeded)
	assert.EqualValues(t, 0, saved.Data)
}

func TestUnitOfWork_SaveResetsStaging(t *testing.T) {
	uow, repo := newSession(t)
	ctx := context.Background()

	entity := &widget{ID: 1, Name: "anvil"}
	require.True(t, repo.Create(ctx, entity).Succeeded)
	require.True(t, repo.Save(ctx).Succeeded)
	assert.Equal(t, StateUnchanged, uow.State(entity))

	again := repo.Save(ctx)
	require.True(t, again.Succeeded)
	assert.EqualValues(t, 0, again.Data, "a second save must not replay the batch")
}

func TestUnitOfWork_SaveStampsAudit(t *testing.T) {
	uow, repo := newSession(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	uow.now = func() time.Time { return fixed }
	ctx := tenantctx.WithActor(context.Background(), "importer")

	entity := &widget{ID: 1, Name: "anvil"}
	require.True(t, repo.Create(ctx, entity).Succeeded)
	require.True(t, repo.Save(ctx).Succeeded)

	assert.Equal(t, fixed, entity.CreatedAt)
	assert.Equal(t, fixed, entity.UpdatedAt)
	assert.Equal(t, "importer", entity.CreatedBy)
	assert.Equal(t, "importer", entity.UpdatedBy)
}

func TestSpecification_FilterOrderPage(t *testing.T) {
	uow, repo := newSession(t)
	ctx := context.Background()
	var batch []*widget
	for i := 1; i <= 9; i++ {
		tier := "basic"
		if i%2 == 0 {
			tier = "premium"
		}
		batch = append(batch, &widget{ID: int64(i), Name: fmt.Sprintf("w%d", i), Tier: tier})
	}
	seedWidgets(t, uow.DB(), batch...)

	spec := NewSpecification[widget]().
		Where("tier = ?", "basic").
		OrderBy("id desc").
		Page(pagination.Pagination{Page: 1, PageSize: 2})

	listed := repo.List(ctx, spec, false)
	require.True(t, listed.Succeeded)
	require.Len(t, listed.Data, 2)
	assert.EqualValues(t, 9, listed.Data[0].ID)
	assert.EqualValues(t, 7, listed.Data[1].ID)

	count := repo.Count(ctx, spec)
	require.True(t, count.Succeeded)
	assert.EqualValues(t, 5, count.Data, "count ignores the page window")
}

func TestStore_Exists(t *testing.T) {
	uow, repo := newSession(t)
	ctx := context.Background()
	seedWidgets(t, uow.DB(), &widget{ID: 1, Name: "anvil"})

	exists := repo.Exists(ctx, "name = ?", "anvil")
	require.True(t, exists.Succeeded)
	assert.True(t, exists.Data)

	exists = repo.ExistsByID(ctx, 42)
	require.True(t, exists.Succeeded)
	assert.False(t, exists.Data)
}

func TestUnitOfWork_SavePreservesStagingOrder(t *testing.T) {
	uow, repo := newSession(t)
	ctx := context.Background()
	// A per-statement unique constraint: at most one primary per tier. The
	// demoting update has to execute before the promoting one.
	require.NoError(t, uow.DB().Exec(
		`CREATE UNIQUE INDEX idx_widgets_tier_primary ON widgets (tier) WHERE is_primary`,
	).Error)
	seedWidgets(t, uow.DB(),
		&widget{ID: 1, Name: "anvil", Tier: "basic", Primary: true},
		&widget{ID: 2, Name: "bolt", Tier: "basic"},
	)

	old := repo.FindByID(ctx, 1, false)
	require.NotNil(t, old.Data)
	next := repo.FindByID(ctx, 2, false)
	require.NotNil(t, next.Data)

	old.Data.Primary = false
	require.True(t, repo.Update(ctx, old.Data).Succeeded)
	next.Data.Primary = true
	require.True(t, repo.Update(ctx, next.Data).Succeeded)

	saved := repo.Save(ctx)
	require.True(t, saved.Succeeded, saved.Messages)
	assert.EqualValues(t, 2, saved.Data)

	reloaded := repo.FindByID(ctx, 2, false)
	require.NotNil(t, reloaded.Data)
	assert.True(t, reloaded.Data.Primary)
}

func TestUnitOfWork_ConcurrentSessionsOverOneConnection(t *testing.T) {
	conn := newTestDB(t)
	seedWidgets(t, conn, &widget{ID: 1, Name: "anvil"})

	// Sessions come and go while queries are in flight; callback
	// registration on the shared connection must not race them.
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				uow := NewUnitOfWork(conn)
				repo := ProvideStore[widget, int64](uow)
				found := repo.FindByID(context.Background(), 1, true)
				if assert.True(t, found.Succeeded, found.Messages) {
					assert.NotNil(t, found.Data)
				}
			}
		}()
	}
	wg.Wait()
}

func TestUnitOfWork_SaveCanceledContext(t *testing.T) {
	_, repo := newSession(t)
	ctx, cancel := context.WithCancel(context.Background())

	require.True(t, repo.Create(ctx, &widget{ID: 1, Name: "anvil"}).Succeeded)
	cancel()

	saved := repo.Save(ctx)
	assert.True(t, saved.Failed())
	assert.True(t, saved.Canceled)
}

func newTestSessionOver(t *testing.T, conn *gorm.DB) (*UnitOfWork, Repository[widget, int64]) {
	t.Helper()
	uow := NewUnitOfWork(conn)
	return uow, ProvideStore[widget, int64](uow)
}
