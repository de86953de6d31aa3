package contact

import (
	"github.com/campuskit/campuskit/internal/contact/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contact.service",
	fx.Provide(service.New),
	fx.Provide(service.ProvideContactNumbers),
	fx.Provide(service.ProvideEmailAddresses),
	fx.Provide(service.ProvideAddresses),
)
