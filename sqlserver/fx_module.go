package sqlserver

import (
	"go.uber.org/fx"

	"github.com/migratekit/sessionlock"
)

// FXModule contributes the SQL Server driver to the session lock driver group.
var FXModule = fx.Module("sessionlock-sqlserver",
	fx.Provide(
		sessionlock.AsDriver(NewDriver),
	),
)
