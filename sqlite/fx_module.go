package sqlite

import (
	"go.uber.org/fx"

	"github.com/migratekit/sessionlock"
)

// FXModule contributes the SQLite driver to the session lock driver group.
var FXModule = fx.Module("sessionlock-sqlite",
	fx.Provide(
		sessionlock.AsDriver(NewDriver),
	),
)
