package controllers_fx

import (
	"go.uber.org/fx"

	"github.com/okwareddevnest/eventpass/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewOrderController),
	fx.Provide(controllers.NewPaymentController),
	fx.Provide(controllers.NewTicketController),
	fx.Provide(controllers.NewPayoutController),
	fx.Provide(controllers.NewAdminController))
