package ecs

const (
	// ActionInit is dispatched exactly once, when the engine is created.
	ActionInit = "@@engine/init"
	// ActionUpdate is dispatched by Engine.Update.
	ActionUpdate = "@@engine/update"
)

// Action is the unit of work handed to every system during a dispatch.
type Action struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

// UpdatePayload is the payload of ActionUpdate.
type UpdatePayload struct {
	Delta float64 `json:"delta"`
}

// Dispatcher hands an action to the next step of the middleware chain.
type Dispatcher func(a Action) error

// Middleware wraps dispatch. It runs before the engine is unlocked, so it may dispatch other
// actions itself. Not calling next drops the action.
type Middleware func(e *Engine, a Action, next Dispatcher) error
