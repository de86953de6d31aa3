package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/campuskit/campuskit/internal/clock"
	"github.com/campuskit/campuskit/internal/config"
	"github.com/campuskit/campuskit/internal/school/domain"
	"github.com/campuskit/campuskit/pkg/db/pagination"
	"github.com/campuskit/campuskit/pkg/repository"
	"github.com/campuskit/campuskit/pkg/result"
	"github.com/campuskit/campuskit/pkg/telemetry"
	"github.com/campuskit/campuskit/pkg/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	conn     *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	metrics  *telemetry.Metrics
	settings *config.SettingsHolder
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Metrics  *telemetry.Metrics     `optional:"true"`
	Settings *config.SettingsHolder `optional:"true"`
}

func New(p ServiceParam) domain.Service {
	return &Service{
		conn:     p.DB,
		log:      p.Log.Named("school.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		metrics:  p.Metrics,
		settings: p.Settings,
	}
}

func (s *Service) tunables() config.Settings {
	if s.settings == nil {
		return config.DefaultSettings()
	}
	return s.settings.Get()
}

func (s *Service) session() (*repository.UnitOfWork, repository.Repository[domain.School, snowflake.ID]) {
	uow := repository.NewUnitOfWork(s.conn,
		repository.WithNow(s.clock.Now),
		repository.WithMetrics(s.metrics),
	)
	return uow, repository.ProvideStore[domain.School, snowflake.ID](uow)
}

// List implements domain.Service.
func (s *Service) List(ctx context.Context, req domain.ListSchoolsRequest) result.Result[domain.ListSchoolsResponse] {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return result.Fail[domain.ListSchoolsResponse](domain.ErrInvalidTenant.Error())
	}

	_, repo := s.session()

	spec := repository.NewSpecification[domain.School]().
		Where("tenant_id = ?", tenantID)
	if name := strings.TrimSpace(req.Name); name != "" {
		spec = spec.Where("name LIKE ?", name+"%")
	}
	if code := strings.TrimSpace(req.Code); code != "" {
		spec = spec.Where("code = ?", code)
	}
	if req.Active != nil {
		spec = spec.Where("active = ?", *req.Active)
	}

	total := repo.Count(ctx, spec)
	if total.Failed() {
		return result.Carry[domain.ListSchoolsResponse](total)
	}

	tuned := s.tunables()
	page := req.Pagination
	if page.PageSize < 1 {
		page.PageSize = tuned.DefaultPageSize
	}
	if page.PageSize > tuned.MaxPageSize {
		page.PageSize = tuned.MaxPageSize
	}
	page = page.Normalize()
	listed := repo.List(ctx, spec.OrderBy("created_at desc, id desc").Page(page), false)
	if listed.Failed() {
		return result.Carry[domain.ListSchoolsResponse](listed)
	}

	return result.Ok(domain.ListSchoolsResponse{
		PageInfo: pagination.BuildPageInfo(page, total.Data),
		Schools:  listed.Data,
	})
}

// Get implements domain.Service.
func (s *Service) Get(ctx context.Context, id snowflake.ID, includes ...string) result.Result[*domain.School] {
	_, repo := s.session()
	found := repo.FindByID(ctx, id, false, includes...)
	if found.Failed() || found.Data == nil {
		return found
	}
	if tenantID, ok := tenantctx.TenantID(ctx); ok && found.Data.TenantID != tenantID {
		// Cross-tenant ids read as absent.
		return result.Ok[*domain.School](nil)
	}
	return found
}

// Create implements domain.Service.
func (s *Service) Create(ctx context.Context, req domain.CreateSchoolRequest) result.Result[*domain.School] {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return result.Fail[*domain.School](domain.ErrInvalidTenant.Error())
	}

	_, repo := s.session()
	school := s.buildSchool(tenantID, req)

	if created := repo.Create(ctx, school); created.Failed() {
		return created
	}
	if saved := repo.Save(ctx); saved.Failed() {
		return result.Carry[*domain.School](saved)
	}
	return result.Ok(school)
}

// BulkImport implements domain.Service.
func (s *Service) BulkImport(ctx context.Context, reqs []domain.CreateSchoolRequest) result.Result[[]*domain.School] {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return result.Fail[[]*domain.School](domain.ErrInvalidTenant.Error())
	}
	if limit := s.tunables().BulkImportLimit; len(reqs) > limit {
		return result.Failf[[]*domain.School]("bulk import exceeds the limit of %d schools", limit)
	}

	_, repo := s.session()
	schools := make([]*domain.School, 0, len(reqs))
	for _, req := range reqs {
		schools = append(schools, s.buildSchool(tenantID, req))
	}

	if staged := repo.CreateRange(ctx, schools); staged.Failed() {
		return staged
	}
	if saved := repo.Save(ctx); saved.Failed() {
		return result.Carry[[]*domain.School](saved)
	}

	s.log.Info("bulk import complete",
		zap.Int64("tenant_id", int64(tenantID)),
		zap.Int("count", len(schools)),
	)
	return result.Ok(schools)
}

// Update implements domain.Service.
func (s *Service) Update(ctx context.Context, req domain.UpdateSchoolRequest) result.Result[*domain.School] {
	_, repo := s.session()

	found := s.Get(ctx, req.ID)
	if found.Failed() {
		return found
	}
	if found.Data == nil {
		return result.Failf[*domain.School]("school %d not found", req.ID)
	}

	school := found.Data
	if req.Name != nil {
		school.Name = *req.Name
	}
	if req.Timezone != nil {
		school.Timezone = *req.Timezone
	}
	if req.Active != nil {
		school.Active = *req.Active
	}

	if updated := repo.Update(ctx, school); updated.Failed() {
		return updated
	}
	if saved := repo.Save(ctx); saved.Failed() {
		return result.Carry[*domain.School](saved)
	}
	return result.Ok(school)
}

// Delete implements domain.Service.
func (s *Service) Delete(ctx context.Context, id snowflake.ID) result.Result[*domain.School] {
	_, repo := s.session()

	found := s.Get(ctx, id)
	if found.Failed() {
		return found
	}
	if found.Data == nil {
		return result.Failf[*domain.School]("school %d not found", id)
	}

	if deleted := repo.Delete(ctx, found.Data); deleted.Failed() {
		return deleted
	}
	if saved := repo.Save(ctx); saved.Failed() {
		return result.Carry[*domain.School](saved)
	}
	return result.Ok(found.Data)
}

func (s *Service) buildSchool(tenantID snowflake.ID, req domain.CreateSchoolRequest) *domain.School {
	return &domain.School{
		ID:       s.genID.Generate(),
		TenantID: tenantID,
		Name:     strings.TrimSpace(req.Name),
		Code:     strings.TrimSpace(req.Code),
		Timezone: req.Timezone,
		Active:   true,
		Metadata: datatypes.JSONMap(req.Metadata),
	}
}
