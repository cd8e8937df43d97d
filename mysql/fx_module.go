package mysql

import (
	"go.uber.org/fx"

	"github.com/migratekit/sessionlock"
)

// FXModule contributes the MySQL and MariaDB lock drivers to the
// sessionlock driver group.
var FXModule = fx.Module("sessionlock-mysql",
	fx.Provide(
		sessionlock.AsDriver(NewDriver),
		sessionlock.AsDriver(NewMariaDBDriver),
	),
)
