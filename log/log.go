// Package log builds the engine logger and emits structured descriptions of engines, entities and
// families.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/ecstore/config"
)

type Loggable interface {
	Components() []string
	SystemNames() []string
}

// New returns a logger writing to stderr configured from cfg.
func New(cfg config.Config) (zerolog.Logger, error) {
	return NewWithWriter(os.Stderr, cfg)
}

func NewWithWriter(w io.Writer, cfg config.Config) (zerolog.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return zerolog.Nop(), err
	}
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(cfg.Level()).With().Timestamp().Logger(), nil
}

func loadComponentIntoArrayLogger(id int, name string, arrayLogger *zerolog.Array) *zerolog.Array {
	dictLogger := zerolog.Dict()
	dictLogger = dictLogger.Int("component_id", id)
	dictLogger = dictLogger.Str("component_name", name)
	return arrayLogger.Dict(dictLogger)
}

// component ids are positions in the declared component list
func loadComponentsToEvent(zeroLoggerEvent *zerolog.Event, components []string) *zerolog.Event {
	zeroLoggerEvent.Int("total_components", len(components))
	arrayLogger := zerolog.Arr()
	for id, name := range components {
		arrayLogger = loadComponentIntoArrayLogger(id, name, arrayLogger)
	}
	return zeroLoggerEvent.Array("components", arrayLogger)
}

func loadSystemIntoEvent(zeroLoggerEvent *zerolog.Event, target Loggable) *zerolog.Event {
	systems := target.SystemNames()
	zeroLoggerEvent.Int("total_systems", len(systems))
	arrayLogger := zerolog.Arr()
	for _, sysName := range systems {
		arrayLogger = arrayLogger.Str(sysName)
	}
	return zeroLoggerEvent.Array("systems", arrayLogger)
}

func stringArray(values []string) *zerolog.Array {
	arrayLogger := zerolog.Arr()
	for _, v := range values {
		arrayLogger = arrayLogger.Str(v)
	}
	return arrayLogger
}

// Components logs the declared components of the engine.
func Components(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	loadComponentsToEvent(logger.WithLevel(level), target.Components()).Send()
}

// Systems logs the registered systems of the engine.
func Systems(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	loadSystemIntoEvent(logger.WithLevel(level), target).Send()
}

// Entity logs an entity along with the names of the components it holds.
func Entity(logger *zerolog.Logger, level zerolog.Level, entityID uint64, components []string) {
	logger.WithLevel(level).
		Uint64("entity_id", entityID).
		Array("components", stringArray(components)).
		Send()
}

// Family logs a family pattern and its current size.
func Family(logger *zerolog.Logger, level zerolog.Level, familyID int, components []string, size int) {
	logger.WithLevel(level).
		Int("family_id", familyID).
		Array("components", stringArray(components)).
		Int("total_entities", size).
		Send()
}

// CreateSystemLogger creates a sub logger with the entry {"system" : systemName}.
func CreateSystemLogger(logger *zerolog.Logger, systemName string) *zerolog.Logger {
	newLogger := logger.With().Str("system", systemName).Logger()
	return &newLogger
}

// CreateTraceLogger creates a sub logger with the entry {"trace_id" : traceID}, used to follow a single
// dispatch through the logs.
func CreateTraceLogger(logger *zerolog.Logger, traceID string) *zerolog.Logger {
	newLogger := logger.With().Str("trace_id", traceID).Logger()
	return &newLogger
}
