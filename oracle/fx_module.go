package oracle

import (
	"go.uber.org/fx"

	"github.com/migratekit/sessionlock"
)

// FXModule contributes the Oracle lock driver to the sessionlock driver group.
var FXModule = fx.Module("sessionlock-oracle",
	fx.Provide(
		fx.Annotate(
			NewDriverWithLogger,
			fx.ParamTags(`optional:"true"`),
			fx.As(new(sessionlock.Driver)),
			fx.ResultTags(`group:"sessionlock_drivers"`),
		),
	),
)
