package ecs

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"pkg.world.dev/world-engine/ecstore/config"
	"pkg.world.dev/world-engine/ecstore/log"
	"pkg.world.dev/world-engine/ecstore/statsd"
)

// Option configures an Engine in New.
type Option func(*Engine)

// WithState replaces the empty initial state. Its columns must be exactly the declared components
// plus id. The engine takes ownership of the maps.
func WithState(s State) Option {
	return func(e *Engine) {
		e.initialState = &s
	}
}

// WithStateJSON is WithState for a state encoded by MarshalState.
func WithStateJSON(bz []byte) Option {
	return func(e *Engine) {
		s, err := UnmarshalState(bz)
		if err != nil {
			e.failOption(err)
			return
		}
		e.initialState = &s
	}
}

// WithSystems appends systems. They run in the order given.
func WithSystems(systems ...System) Option {
	return func(e *Engine) {
		if err := e.registerSystems(systems...); err != nil {
			e.failOption(err)
		}
	}
}

// WithMiddlewares appends middlewares. The first one given is the outermost.
func WithMiddlewares(middlewares ...Middleware) Option {
	return func(e *Engine) {
		e.middlewares = append(e.middlewares, middlewares...)
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithPrettyLog() Option {
	return func(e *Engine) {
		prettyLogger := e.logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
		e.logger = &prettyLogger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithStateDiffLogging logs, at debug level, a JSON patch of the state after every dispatch.
// Every dispatch then serializes the whole state twice.
func WithStateDiffLogging() Option {
	return func(e *Engine) {
		e.stateDiff = true
	}
}

// WithConfig applies a loaded configuration: logger, statsd client and state diff logging.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		if err := cfg.Validate(); err != nil {
			e.failOption(err)
			return
		}
		logger, err := log.New(*cfg)
		if err != nil {
			e.failOption(eris.Wrap(err, "failed to create logger"))
			return
		}
		e.logger = &logger
		if cfg.StatsdAddress != "" {
			if err := statsd.Init(cfg.StatsdAddress, cfg.StatsdTags); err != nil {
				e.failOption(err)
				return
			}
		}
		e.stateDiff = e.stateDiff || cfg.StateDiffLogging
	}
}
