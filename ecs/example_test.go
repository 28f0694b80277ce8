package ecs_test

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/ecstore/ecs"
)

type move struct {
	ID ecs.EntityID
	X  int
}

func moveSystem(e *ecs.Engine, a ecs.Action) error {
	switch a.Type {
	case "spawn":
		_, err := e.Create(ecs.WithTemplate(map[string]any{"pos": 0, "vel": 1}))
		return err
	case "move":
		m := a.Payload.(move)
		return e.Get(m.ID).Set("pos", m.X)
	}
	return nil
}

func Example() {
	logger := zerolog.Nop()
	engine, err := ecs.New([]string{"pos", "vel"}, ecs.WithLogger(&logger), ecs.WithSystems(moveSystem))
	if err != nil {
		panic(err)
	}
	moving, err := engine.Filter("pos", "vel")
	if err != nil {
		panic(err)
	}
	_ = engine.Observe("pos", ecs.ObserveComponentFunc(func(event ecs.ComponentEvent) {
		for id, previous := range event.Values {
			value, _ := event.Engine.Get(id).Get("pos")
			fmt.Printf("entity %d moved from %v to %v\n", id, previous, value)
		}
	}))

	ctx := context.Background()
	_ = engine.Dispatch(ctx, ecs.Action{Type: "spawn"})
	fmt.Println("moving:", moving.Entities())

	_ = engine.Dispatch(ctx, ecs.Action{Type: "move", Payload: move{ID: 0, X: 5}})
	// Output:
	// entity 0 moved from <nil> to 0
	// moving: [0]
	// entity 0 moved from 0 to 5
}
