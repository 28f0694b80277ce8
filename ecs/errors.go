package ecs

import "github.com/rotisserie/eris"

// Configuration errors, returned by New.
var (
	ErrReservedComponent  = eris.New("component name is reserved")
	ErrDuplicateComponent = eris.New("component is declared more than once")
	ErrStateMismatch      = eris.New("state and components should match")
)

// Locking errors.
var (
	ErrEngineLocked       = eris.New("engine is locked")
	ErrDispatchInProgress = eris.New("cannot dispatch while another dispatch is in progress")
)

// Referential errors.
var (
	ErrUnknownComponent = eris.New("component is not defined")
	ErrEntityNotFound   = eris.New("entity does not exist")
	ErrEmptyFilter      = eris.New("filter needs at least one component")
	ErrComponentType    = eris.New("component value has an unexpected type")
)

// Uniqueness errors.
var (
	ErrEntityExists = eris.New("entity already exists")
)

// ErrSystemPanic wraps a panic raised by a system during dispatch.
var ErrSystemPanic = eris.New("system panicked")
