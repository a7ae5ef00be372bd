package payouts_fx

import (
	"go.uber.org/fx"

	"github.com/okwareddevnest/eventpass/internal/repositories"
	"github.com/okwareddevnest/eventpass/internal/services"
)

var Module = fx.Provide(
	repositories.NewPayoutRepository,
	services.NewPayoutService,
)
