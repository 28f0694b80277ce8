package ecs_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"pkg.world.dev/world-engine/ecstore/ecs"
)

const actionRun = "test/run"

// runSystem executes the function carried by a test/run action.
func runSystem(e *ecs.Engine, a ecs.Action) error {
	if a.Type != actionRun {
		return nil
	}
	fn, ok := a.Payload.(func(*ecs.Engine) error)
	if !ok {
		return nil
	}
	return fn(e)
}

// run dispatches fn as a system.
func run(e *ecs.Engine, fn func(*ecs.Engine) error) error {
	return e.Dispatch(context.Background(), ecs.Action{Type: actionRun, Payload: fn})
}

func quietLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func newEngine(t *testing.T, components []string, opts ...ecs.Option) *ecs.Engine {
	t.Helper()
	opts = append([]ecs.Option{ecs.WithLogger(quietLogger()), ecs.WithSystems(runSystem)}, opts...)
	e, err := ecs.New(components, opts...)
	require.NoError(t, err)
	return e
}

// state builds an initial state where every entity listed in ids is alive.
func state(ids []ecs.EntityID, columns map[string]ecs.Column) ecs.State {
	s := ecs.State{
		Components: map[string]ecs.Column{ecs.IDComponent: {}},
		Meta:       map[string]any{},
	}
	for _, id := range ids {
		s.Components[ecs.IDComponent][id] = true
	}
	for name, col := range columns {
		s.Components[name] = col
	}
	return s
}

func create(t *testing.T, e *ecs.Engine, id ecs.EntityID, template map[string]any) {
	t.Helper()
	require.NoError(t, run(e, func(e *ecs.Engine) error {
		_, err := e.Create(ecs.WithID(id), ecs.WithTemplate(template))
		return err
	}))
}

func set(t *testing.T, e *ecs.Engine, id ecs.EntityID, name string, value any) {
	t.Helper()
	require.NoError(t, run(e, func(e *ecs.Engine) error {
		return e.Get(id).Set(name, value)
	}))
}
