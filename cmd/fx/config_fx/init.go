package config_fx

import (
	"go.uber.org/fx"

	"github.com/okwareddevnest/eventpass/internal/infra"
)

var Module = fx.Provide(
	infra.LoadConfig)
