package db_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/okwareddevnest/eventpass/internal/infra"
)

var Module = fx.Provide(
	provideDB)

func provideDB(cfg *infra.Config) (*gorm.DB, error) {
	return infra.InitPostgresql(cfg)
}
