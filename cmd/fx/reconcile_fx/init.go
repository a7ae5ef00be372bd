package reconcile_fx

import (
	"go.uber.org/fx"

	"github.com/okwareddevnest/eventpass/internal/services"
)

var Module = fx.Provide(
	services.NewReconciliationService)
