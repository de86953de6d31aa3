package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/campuskit/campuskit/internal/clock"
	"github.com/campuskit/campuskit/internal/contact/domain"
	"github.com/campuskit/campuskit/pkg/result"
	"github.com/campuskit/campuskit/pkg/telemetry"
	"github.com/campuskit/campuskit/pkg/tenantctx"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service hosts the three default-member families behind one dependency
// set. Each family shares the same generic manager; only the entity type
// differs.
type Service struct {
	log   *zap.Logger
	genID *snowflake.Node

	numbers   *manager[domain.ContactNumber, *domain.ContactNumber]
	emails    *manager[domain.EmailAddress, *domain.EmailAddress]
	addresses *manager[domain.Address, *domain.Address]
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *telemetry.Metrics `optional:"true"`
}

func New(p ServiceParam) *Service {
	log := p.Log.Named("contact.service")
	tracer := otel.Tracer("campuskit/contact")
	meter := otel.Meter("campuskit/contact")
	mutations, err := meter.Int64Counter("contact.member.mutations")
	if err != nil {
		log.Warn("mutation counter unavailable", zap.Error(err))
	}

	return &Service{
		log:       log,
		genID:     p.GenID,
		numbers:   newManager[domain.ContactNumber]("contact_number", p.DB, log, p.Clock, p.Metrics, tracer, mutations),
		emails:    newManager[domain.EmailAddress]("email_address", p.DB, log, p.Clock, p.Metrics, tracer, mutations),
		addresses: newManager[domain.Address]("address", p.DB, log, p.Clock, p.Metrics, tracer, mutations),
	}
}

func ProvideContactNumbers(s *Service) domain.ContactNumberService { return contactNumbers{s} }

func ProvideEmailAddresses(s *Service) domain.EmailAddressService { return emailAddresses{s} }

func ProvideAddresses(s *Service) domain.AddressService { return addresses{s} }

func tenantOf(ctx context.Context) (snowflake.ID, bool) {
	tenantID, ok := tenantctx.TenantID(ctx)
	return tenantID, ok && tenantID != 0
}

type contactNumbers struct{ *Service }

var _ domain.ContactNumberService = contactNumbers{}

func (s contactNumbers) List(ctx context.Context, req domain.ListMembersRequest) result.Result[[]*domain.ContactNumber] {
	return s.numbers.List(ctx, req.OwnerID, req.OwnerType)
}

func (s contactNumbers) Create(ctx context.Context, req domain.CreateContactNumberRequest) result.Result[*domain.ContactNumber] {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return result.Fail[*domain.ContactNumber](domain.ErrInvalidTenant.Error())
	}
	return s.numbers.Create(ctx, &domain.ContactNumber{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		OwnerID:   req.OwnerID,
		OwnerType: req.OwnerType,
		Label:     req.Label,
		Number:    req.Number,
		Default:   req.Default,
	})
}

func (s contactNumbers) Update(ctx context.Context, req domain.UpdateContactNumberRequest) result.Result[*domain.ContactNumber] {
	_, repo := s.numbers.session()
	found := repo.FindByID(ctx, req.ID, false)
	if found.Failed() {
		return found
	}
	if found.Data == nil {
		return result.Failf[*domain.ContactNumber]("contact_number %d not found", req.ID)
	}

	entity := found.Data
	if req.Label != nil {
		entity.Label = *req.Label
	}
	if req.Number != nil {
		entity.Number = *req.Number
	}
	if req.Default != nil {
		entity.Default = *req.Default
	}
	return s.numbers.Update(ctx, entity)
}

func (s contactNumbers) Delete(ctx context.Context, id snowflake.ID) result.Result[*domain.ContactNumber] {
	return s.numbers.Delete(ctx, id)
}

type emailAddresses struct{ *Service }

var _ domain.EmailAddressService = emailAddresses{}

func (s emailAddresses) List(ctx context.Context, req domain.ListMembersRequest) result.Result[[]*domain.EmailAddress] {
	return s.emails.List(ctx, req.OwnerID, req.OwnerType)
}

func (s emailAddresses) Create(ctx context.Context, req domain.CreateEmailAddressRequest) result.Result[*domain.EmailAddress] {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return result.Fail[*domain.EmailAddress](domain.ErrInvalidTenant.Error())
	}
	return s.emails.Create(ctx, &domain.EmailAddress{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		OwnerID:   req.OwnerID,
		OwnerType: req.OwnerType,
		Label:     req.Label,
		Email:     req.Email,
		Default:   req.Default,
	})
}

func (s emailAddresses) Update(ctx context.Context, req domain.UpdateEmailAddressRequest) result.Result[*domain.EmailAddress] {
	_, repo := s.emails.session()
	found := repo.FindByID(ctx, req.ID, false)
	if found.Failed() {
		return found
	}
	if found.Data == nil {
		return result.Failf[*domain.EmailAddress]("email_address %d not found", req.ID)
	}

	entity := found.Data
	if req.Label != nil {
		entity.Label = *req.Label
	}
	if req.Email != nil {
		entity.Email = *req.Email
	}
	if req.Default != nil {
		entity.Default = *req.Default
	}
	return s.emails.Update(ctx, entity)
}

func (s emailAddresses) Delete(ctx context.Context, id snowflake.ID) result.Result[*domain.EmailAddress] {
	return s.emails.Delete(ctx, id)
}

type addresses struct{ *Service }

var _ domain.AddressService = addresses{}

func (s addresses) List(ctx context.Context, req domain.ListMembersRequest) result.Result[[]*domain.Address] {
	return s.Service.addresses.List(ctx, req.OwnerID, req.OwnerType)
}

func (s addresses) Create(ctx context.Context, req domain.CreateAddressRequest) result.Result[*domain.Address] {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return result.Fail[*domain.Address](domain.ErrInvalidTenant.Error())
	}
	return s.Service.addresses.Create(ctx, &domain.Address{
		ID:         s.genID.Generate(),
		TenantID:   tenantID,
		OwnerID:    req.OwnerID,
		OwnerType:  req.OwnerType,
		Label:      req.Label,
		Street:     req.Street,
		City:       req.City,
		Region:     req.Region,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Default:    req.Default,
	})
}

func (s addresses) Update(ctx context.Context, req domain.UpdateAddressRequest) result.Result[*domain.Address] {
	_, repo := s.Service.addresses.session()
	found := repo.FindByID(ctx, req.ID, false)
	if found.Failed() {
		return found
	}
	if found.Data == nil {
		return result.Failf[*domain.Address]("address %d not found", req.ID)
	}

	entity := found.Data
	if req.Label != nil {
		entity.Label = *req.Label
	}
	if req.Street != nil {
		entity.Street = *req.Street
	}
	if req.City != nil {
		entity.City = *req.City
	}
	if req.Default != nil {
		entity.Default = *req.Default
	}
	return s.Service.addresses.Update(ctx, entity)
}

func (s addresses) Delete(ctx context.Context, id snowflake.ID) result.Result[*domain.Address] {
	return s.Service.addresses.Delete(ctx, id)
}
