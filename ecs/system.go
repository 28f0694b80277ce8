package ecs

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	ddotel "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/opentelemetry"
	ddtracer "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"pkg.world.dev/world-engine/ecstore/log"
	"pkg.world.dev/world-engine/ecstore/statsd"
)

const noActiveSystemName = ""

// System is a mutation handler called once per dispatch. Returning an error, or panicking, skips
// the remaining systems of that dispatch.
type System func(e *Engine, a Action) error

// systemType is an internal entry used to track registered systems.
type systemType struct {
	Name string
	Fn   System
}

// systemName derives a name from the function, e.g. "game.MoveSystem".
func systemName(fn System) string {
	return filepath.Base(runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name())
}

// registerSystems appends systems in the given order. The same function may be registered more than
// once and then runs once per registration.
func (e *Engine) registerSystems(systems ...System) error {
	for _, fn := range systems {
		if fn == nil {
			return eris.New("system must not be nil")
		}
		e.systems = append(e.systems, systemType{Name: systemName(fn), Fn: fn})
	}
	return nil
}

// SystemNames returns the names of the registered systems in the order they run.
func (e *Engine) SystemNames() []string {
	names := make([]string, len(e.systems))
	for i, sys := range e.systems {
		names[i] = sys.Name
	}
	return names
}

// CurrentSystem returns the name of the system that is running, or an empty string between systems.
func (e *Engine) CurrentSystem() string {
	return e.currentSystem
}

// runSystems unlocks the engine and runs every system in registration order. The engine is locked
// again on every exit path. A panicking system is reported as ErrSystemPanic.
func (e *Engine) runSystems(ctx context.Context, logger *zerolog.Logger, a Action) error {
	ctx, span := e.tracer.Start(ddotel.ContextWithStartOptions(ctx, ddtracer.Measured()), "system.run")
	defer span.End()

	allSystemStartTime := time.Now()
	e.locked = false
	defer func() {
		e.locked = true
		e.currentSystem = noActiveSystemName
		e.systemLogger = nil
	}()

	for _, sys := range e.systems {
		e.currentSystem = sys.Name

		// Inject the system name into the logger
		e.systemLogger = log.CreateSystemLogger(logger, sys.Name)

		systemStartTime := time.Now()
		_, systemFnSpan := e.tracer.Start(ddotel.ContextWithStartOptions(ctx, //nolint:spancheck // ended below
			ddtracer.Measured()),
			"system.run."+sys.Name)
		if err := runSystem(sys, e, a); err != nil {
			span.SetStatus(codes.Error, eris.ToString(err, true))
			span.RecordError(err)
			systemFnSpan.SetStatus(codes.Error, eris.ToString(err, true))
			systemFnSpan.RecordError(err)
			systemFnSpan.End()
			return eris.Wrapf(err, "system %s generated an error", sys.Name)
		}
		systemFnSpan.End()

		// Emit the time it took to run the system
		statsd.EmitDispatchStat(systemStartTime, sys.Name)
	}

	statsd.EmitDispatchStat(allSystemStartTime, statsd.StageAllSystems)
	return nil
}

// runSystem reports a panicking system as ErrSystemPanic.
func runSystem(sys systemType, e *Engine, a Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Wrap(ErrSystemPanic, fmt.Sprint(r))
		}
	}()
	return sys.Fn(e, a)
}
