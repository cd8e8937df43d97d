package sessionlock

import (
	"context"
	"fmt"

	"go.uber.org/fx"
)

// FXModule provides a *Service assembled from a Session, a Config and the
// drivers contributed to the "sessionlock_drivers" value group. Backend
// packages contribute their driver via their own fx modules (or use
// drivers.FXModule to get the full set).
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    drivers.FXModule,
//	    sessionlock.FXModule,
//	    fx.Provide(func() (sessionlock.Session, error) {
//	        return postgres.OpenSession(ctx, pgCfg, sessCfg)
//	    }),
//	    fx.Invoke(func(svc *sessionlock.Service) { ... }),
//	)
var FXModule = fx.Module("sessionlock",
	fx.Provide(NewServiceWithDI),
)

// ServiceParams groups the dependencies needed to create the lock service.
type ServiceParams struct {
	fx.In

	Session Session
	Config  Config
	Logger  Logger   `optional:"true"`
	Metrics *Metrics `optional:"true"`
	Drivers []Driver `group:"sessionlock_drivers"`
}

// NewServiceWithDI selects the backend driver for the session and builds the
// service. It fails when no contributed driver supports the session's engine:
// selection happens exactly once, at setup.
func NewServiceWithDI(params ServiceParams) (*Service, error) {
	driver := Select(context.Background(), params.Session, params.Drivers...)
	if driver == nil {
		return nil, fmt.Errorf("no session lock driver supports database kind %q", params.Session.Kind())
	}

	svc := NewService(params.Session, driver, params.Config, params.Logger)
	if params.Metrics != nil {
		svc.WithMetrics(params.Metrics)
	}
	return svc, nil
}

// AsDriver annotates a driver constructor so its result lands in the
// "sessionlock_drivers" group as a Driver. Backend packages use this in their
// fx modules.
func AsDriver(constructor interface{}) interface{} {
	return fx.Annotate(
		constructor,
		fx.As(new(Driver)),
		fx.ResultTags(`group:"sessionlock_drivers"`),
	)
}
