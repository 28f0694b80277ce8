package ecs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/wI2L/jsondiff"
	"go.opentelemetry.io/otel/codes"
	ddotel "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/opentelemetry"
	ddtracer "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"pkg.world.dev/world-engine/ecstore/log"
	"pkg.world.dev/world-engine/ecstore/statsd"
)

// Dispatch passes a through the middlewares and then to every system. Systems and observers
// cannot dispatch: a nested call returns ErrDispatchInProgress.
//
// Queued changes are delivered once the engine is locked again, even when a system fails. The
// system error is returned after delivery.
func (e *Engine) Dispatch(ctx context.Context, a Action) error {
	if err := e.checkDispatch(a); err != nil {
		return err
	}
	var next Dispatcher = func(a Action) error {
		return e.dispatchToSystems(ctx, a)
	}
	for i := len(e.middlewares) - 1; i >= 0; i-- {
		middleware, localNext := e.middlewares[i], next
		next = func(a Action) error {
			return middleware(e, a, localNext)
		}
	}
	return next(a)
}

// Update dispatches ActionUpdate with the elapsed time.
func (e *Engine) Update(ctx context.Context, delta float64) error {
	return e.Dispatch(ctx, Action{Type: ActionUpdate, Payload: UpdatePayload{Delta: delta}})
}

func (e *Engine) checkDispatch(a Action) error {
	if !e.locked {
		return eris.Wrapf(ErrDispatchInProgress, "cannot dispatch %q from a system", a.Type)
	}
	if e.flushing {
		return eris.Wrapf(ErrDispatchInProgress, "cannot dispatch %q from an observer", a.Type)
	}
	return nil
}

func (e *Engine) dispatchToSystems(ctx context.Context, a Action) error {
	if err := e.checkDispatch(a); err != nil {
		return err
	}

	ctx, span := e.tracer.Start(ddotel.ContextWithStartOptions(ctx, ddtracer.Measured()), "engine.dispatch")
	defer span.End()

	logger := log.CreateTraceLogger(e.logger, uuid.NewString())
	logger.Debug().Str("action_type", a.Type).Msg("dispatch started")
	startTime := time.Now()
	statsd.EmitDispatchCount(a.Type)

	var before []byte
	if e.stateDiff {
		bz, err := e.MarshalState()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to snapshot state before dispatch")
		}
		before = bz
	}

	err := e.runSystems(ctx, logger, a)

	notifyStartTime := time.Now()
	e.flush(a)
	statsd.EmitDispatchStat(notifyStartTime, statsd.StageNotify)

	if before != nil {
		e.logStateDiff(logger, before)
	}

	if err != nil {
		span.SetStatus(codes.Error, eris.ToString(err, true))
		span.RecordError(err)
		logger.Error().Str("action_type", a.Type).Err(err).Msg(eris.ToString(err, true))
		return err
	}
	logger.Debug().
		Str("action_type", a.Type).
		Dur("duration", time.Since(startTime)).
		Msg("dispatch finished")
	return nil
}

// logStateDiff logs the JSON patch turning before into the current state.
func (e *Engine) logStateDiff(logger *zerolog.Logger, before []byte) {
	after, err := e.MarshalState()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to snapshot state after dispatch")
		return
	}
	patch, err := jsondiff.CompareJSON(before, after)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to diff state")
		return
	}
	if len(patch) == 0 {
		return
	}
	logger.Debug().Int("operations", len(patch)).Str("patch", patch.String()).Msg("state changed")
}
