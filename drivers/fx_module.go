package drivers

import (
	"go.uber.org/fx"

	"github.com/migratekit/sessionlock/mysql"
	"github.com/migratekit/sessionlock/oracle"
	"github.com/migratekit/sessionlock/postgres"
	"github.com/migratekit/sessionlock/sqlite"
	"github.com/migratekit/sessionlock/sqlserver"
)

// FXModule bundles every backend module so an application can register the
// full driver set with one option.
var FXModule = fx.Module("sessionlock-drivers",
	mysql.FXModule,
	postgres.FXModule,
	oracle.FXModule,
	sqlserver.FXModule,
	sqlite.FXModule,
)
