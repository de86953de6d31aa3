package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/campuskit/campuskit/internal/clock"
	"github.com/campuskit/campuskit/internal/contact/domain"
	"github.com/campuskit/campuskit/internal/migration"
	"github.com/campuskit/campuskit/pkg/tenantctx"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newContactFixture(t *testing.T) (*Service, *gorm.DB, context.Context) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	// Same schema as the production bootstrap, partial unique indexes
	// included.
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(ServiceParam{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	})

	ctx := tenantctx.WithTenantID(context.Background(), node.Generate())
	ctx = tenantctx.WithActor(ctx, "registrar")
	return svc, conn, ctx
}

func defaultsOf(t *testing.T, conn *gorm.DB, ownerID snowflake.ID) []domain.ContactNumber {
	t.Helper()
	var rows []domain.ContactNumber
	err := conn.
		Where("owner_id = ? AND is_default = ?", ownerID, true).
		Order("id asc").
		Find(&rows).Error
	require.NoError(t, err)
	return rows
}

func TestContactNumbers_FirstMemberBecomesDefault(t *testing.T) {
	svc, conn, ctx := newContactFixture(t)
	numbers := ProvideContactNumbers(svc)
	owner := svc.genID.Generate()

	created := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID:   owner,
		OwnerType: domain.OwnerTypeSchool,
		Number:    "+62215550100",
		Default:   false, // request explicitly non-default
	})
	require.True(t, created.Succeeded, created.Messages)
	assert.True(t, created.Data.Default, "a lone member is always the default")

	defaults := defaultsOf(t, conn, owner)
	require.Len(t, defaults, 1)
	assert.Equal(t, created.Data.ID, defaults[0].ID)
}

func TestContactNumbers_CreateDefaultDemotesPrevious(t *testing.T) {
	svc, conn, ctx := newContactFixture(t)
	numbers := ProvideContactNumbers(svc)
	owner := svc.genID.Generate()

	first := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550100",
	})
	require.True(t, first.Succeeded)

	second := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550101", Default: true,
	})
	require.True(t, second.Succeeded, second.Messages)

	defaults := defaultsOf(t, conn, owner)
	require.Len(t, defaults, 1, "never two defaults for one owner")
	assert.Equal(t, second.Data.ID, defaults[0].ID)
}

func TestContactNumbers_CreateNonDefaultLeavesDefaultAlone(t *testing.T) {
	svc, conn, ctx := newContactFixture(t)
	numbers := ProvideContactNumbers(svc)
	owner := svc.genID.Generate()

	first := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550100",
	})
	require.True(t, first.Succeeded)

	second := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550101",
	})
	require.True(t, second.Succeeded)
	assert.False(t, second.Data.Default)

	defaults := defaultsOf(t, conn, owner)
	require.Len(t, defaults, 1)
	assert.Equal(t, first.Data.ID, defaults[0].ID)
}

func TestContactNumbers_UpdateSetDefaultDemotesOthers(t *testing.T) {
	svc, conn, ctx := newContactFixture(t)
	numbers := ProvideContactNumbers(svc)
	owner := svc.genID.Generate()

	first := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550100",
	})
	require.True(t, first.Succeeded)
	second := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550101",
	})
	require.True(t, second.Succeeded)

	makeDefault := true
	updated := numbers.Update(ctx, domain.UpdateContactNumberRequest{
		ID:      second.Data.ID,
		Default: &makeDefault,
	})
	require.True(t, updated.Succeeded, updated.Messages)

	defaults := defaultsOf(t, conn, owner)
	require.Len(t, defaults, 1)
	assert.Equal(t, second.Data.ID, defaults[0].ID)
}

func TestContactNumbers_UpdateClearSoleDefaultIsNotRepaired(t *testing.T) {
	svc, conn, ctx := newContactFixture(t)
	numbers := ProvideContactNumbers(svc)
	owner := svc.genID.Generate()

	only := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550100",
	})
	require.True(t, only.Succeeded)
	require.True(t, only.Data.Default)

	clearDefault := false
	updated := numbers.Update(ctx, domain.UpdateContactNumberRequest{
		ID:      only.Data.ID,
		Default: &clearDefault,
	})
	require.True(t, updated.Succeeded, updated.Messages)

	// The caller asked for no default; the service takes them at their word.
	assert.Empty(t, defaultsOf(t, conn, owner))
}

func TestContactNumbers_DeleteDefaultPromotesLowestSurvivor(t *testing.T) {
	svc, conn, ctx := newContactFixture(t)
	numbers := ProvideContactNumbers(svc)
	owner := svc.genID.Generate()

	first := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550100",
	})
	require.True(t, first.Succeeded) // default
	second := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550101",
	})
	require.True(t, second.Succeeded)
	third := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550102",
	})
	require.True(t, third.Succeeded)

	deleted := numbers.Delete(ctx, first.Data.ID)
	require.True(t, deleted.Succeeded, deleted.Messages)

	defaults := defaultsOf(t, conn, owner)
	require.Len(t, defaults, 1)
	assert.Equal(t, second.Data.ID, defaults[0].ID, "lowest surviving id is promoted")
}

// The store enforces at most one default per owner with a partial unique
// index checked per statement, so every rebalancing write has to land before
// the write that claims the default slot.
func TestContactNumbers_RebalancingSatisfiesDefaultIndex(t *testing.T) {
	svc, conn, ctx := newContactFixture(t)
	numbers := ProvideContactNumbers(svc)
	owner := svc.genID.Generate()

	// The index itself must exist in this schema: a second default written
	// behind the service's back is rejected.
	seeded := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550100",
	})
	require.True(t, seeded.Succeeded)
	rogue := domain.ContactNumber{
		ID: svc.genID.Generate(), TenantID: seeded.Data.TenantID,
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool,
		Number: "+62215550199", Default: true,
	}
	require.Error(t, conn.Create(&rogue).Error)

	// Creating a new default over the existing one demotes first, then
	// inserts.
	second := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550101", Default: true,
	})
	require.True(t, second.Succeeded, second.Messages)

	// Moving the default by update demotes the holder before promoting.
	makeDefault := true
	moved := numbers.Update(ctx, domain.UpdateContactNumberRequest{
		ID:      seeded.Data.ID,
		Default: &makeDefault,
	})
	require.True(t, moved.Succeeded, moved.Messages)

	// Deleting the default removes the row before the survivor claims the
	// slot.
	deleted := numbers.Delete(ctx, seeded.Data.ID)
	require.True(t, deleted.Succeeded, deleted.Messages)

	defaults := defaultsOf(t, conn, owner)
	require.Len(t, defaults, 1)
	assert.Equal(t, second.Data.ID, defaults[0].ID)
}

func TestContactNumbers_DeleteNonDefaultNeverRebalances(t *testing.T) {
	svc, conn, ctx := newContactFixture(t)
	numbers := ProvideContactNumbers(svc)
	owner := svc.genID.Generate()

	first := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550100",
	})
	require.True(t, first.Succeeded) // default
	second := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550101",
	})
	require.True(t, second.Succeeded)
	third := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550102",
	})
	require.True(t, third.Succeeded)

	deleted := numbers.Delete(ctx, third.Data.ID)
	require.True(t, deleted.Succeeded)

	defaults := defaultsOf(t, conn, owner)
	require.Len(t, defaults, 1)
	assert.Equal(t, first.Data.ID, defaults[0].ID, "the default must not move")
}

func TestContactNumbers_DeleteLastMemberLeavesOwnerEmpty(t *testing.T) {
	svc, conn, ctx := newContactFixture(t)
	numbers := ProvideContactNumbers(svc)
	owner := svc.genID.Generate()

	only := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550100",
	})
	require.True(t, only.Succeeded)

	deleted := numbers.Delete(ctx, only.Data.ID)
	require.True(t, deleted.Succeeded)

	var count int64
	require.NoError(t, conn.Model(&domain.ContactNumber{}).Where("owner_id = ?", owner).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestContactNumbers_List_DefaultFirst(t *testing.T) {
	svc, _, ctx := newContactFixture(t)
	numbers := ProvideContactNumbers(svc)
	owner := svc.genID.Generate()

	first := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550100",
	})
	require.True(t, first.Succeeded)
	second := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550101", Default: true,
	})
	require.True(t, second.Succeeded)

	listed := numbers.List(ctx, domain.ListMembersRequest{OwnerID: owner, OwnerType: domain.OwnerTypeSchool})
	require.True(t, listed.Succeeded)
	require.Len(t, listed.Data, 2)
	assert.Equal(t, second.Data.ID, listed.Data[0].ID)
}

func TestContactNumbers_Failures(t *testing.T) {
	svc, _, ctx := newContactFixture(t)
	numbers := ProvideContactNumbers(svc)
	owner := svc.genID.Generate()

	t.Run("missing tenant", func(t *testing.T) {
		created := numbers.Create(context.Background(), domain.CreateContactNumberRequest{
			OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "+62215550100",
		})
		assert.True(t, created.Failed())
		assert.Contains(t, created.Message(), "tenant")
	})

	t.Run("missing owner", func(t *testing.T) {
		created := numbers.Create(ctx, domain.CreateContactNumberRequest{
			OwnerType: domain.OwnerTypeSchool, Number: "+62215550100",
		})
		assert.True(t, created.Failed())
		assert.Contains(t, created.Message(), "owner")
	})

	t.Run("invalid number", func(t *testing.T) {
		created := numbers.Create(ctx, domain.CreateContactNumberRequest{
			OwnerID: owner, OwnerType: domain.OwnerTypeSchool, Number: "1",
		})
		assert.True(t, created.Failed())
	})

	t.Run("update unknown id", func(t *testing.T) {
		label := "front office"
		updated := numbers.Update(ctx, domain.UpdateContactNumberRequest{ID: svc.genID.Generate(), Label: &label})
		assert.True(t, updated.Failed())
		assert.Contains(t, updated.Message(), "not found")
	})

	t.Run("delete unknown id", func(t *testing.T) {
		deleted := numbers.Delete(ctx, svc.genID.Generate())
		assert.True(t, deleted.Failed())
		assert.Contains(t, deleted.Message(), "not found")
	})
}

func TestEmailAddresses_InvariantAppliesPerFamily(t *testing.T) {
	svc, conn, ctx := newContactFixture(t)
	emails := ProvideEmailAddresses(svc)
	numbers := ProvideContactNumbers(svc)
	owner := svc.genID.Generate()

	num := numbers.Create(ctx, domain.CreateContactNumberRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeCampus, Number: "+62215550100",
	})
	require.True(t, num.Succeeded)

	mail := emails.Create(ctx, domain.CreateEmailAddressRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeCampus, Email: "office@example.edu",
	})
	require.True(t, mail.Succeeded, mail.Messages)
	assert.True(t, mail.Data.Default, "each family tracks its own default")

	var emailDefaults int64
	require.NoError(t, conn.Model(&domain.EmailAddress{}).
		Where("owner_id = ? AND is_default = ?", owner, true).
		Count(&emailDefaults).Error)
	assert.EqualValues(t, 1, emailDefaults)
}

func TestAddresses_CreateAndPromote(t *testing.T) {
	svc, conn, ctx := newContactFixture(t)
	addrs := ProvideAddresses(svc)
	owner := svc.genID.Generate()

	first := addrs.Create(ctx, domain.CreateAddressRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeCampus,
		Street: "Jl. Merdeka 1", City: "Jakarta", Country: "ID",
	})
	require.True(t, first.Succeeded, first.Messages)
	second := addrs.Create(ctx, domain.CreateAddressRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeCampus,
		Street: "Jl. Merdeka 2", City: "Jakarta", Country: "ID",
	})
	require.True(t, second.Succeeded)

	deleted := addrs.Delete(ctx, first.Data.ID)
	require.True(t, deleted.Succeeded)

	var rows []domain.Address
	require.NoError(t, conn.Where("owner_id = ?", owner).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Default)
}

func TestAddresses_ValidationFailures(t *testing.T) {
	svc, _, ctx := newContactFixture(t)
	addrs := ProvideAddresses(svc)
	owner := svc.genID.Generate()

	created := addrs.Create(ctx, domain.CreateAddressRequest{
		OwnerID: owner, OwnerType: domain.OwnerTypeCampus,
		Street: "Jl. Merdeka 1", City: "Jakarta", Country: "Indonesia", // must be ISO 3166-1 alpha-2
	})
	assert.True(t, created.Failed())
}
