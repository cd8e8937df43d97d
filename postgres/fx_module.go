package postgres

import (
	"go.uber.org/fx"

	"github.com/migratekit/sessionlock"
)

// FXModule contributes the PostgreSQL lock driver to the sessionlock driver
// group. The logger is optional; without one, version-probe failures are
// silent (and still degrade Supports to false).
var FXModule = fx.Module("sessionlock-postgres",
	fx.Provide(
		fx.Annotate(
			NewDriverWithLogger,
			fx.ParamTags(`optional:"true"`),
			fx.As(new(sessionlock.Driver)),
			fx.ResultTags(`group:"sessionlock_drivers"`),
		),
	),
)
