package ecs

import "github.com/rotisserie/eris"

const (
	// IDComponent is the reserved column tracking entity liveness.
	IDComponent = "id"
	// MetaComponent is the reserved name of the engine metadata.
	MetaComponent = "meta"

	nextIDMetaKey = "@@engine/nextId"
)

type columnKind int

const (
	userColumn columnKind = iota
	idColumn
	metaColumn
)

// column is a resolved component name.
type column struct {
	kind columnKind
	name string
	// pos is the position in the declared component list, -1 for reserved columns.
	pos int
}

func (c column) reserved() bool {
	return c.kind != userColumn
}

func isReserved(name string) bool {
	return name == IDComponent || name == MetaComponent
}

// resolve maps a component name to its column. Unknown names return ErrUnknownComponent.
func (e *Engine) resolve(name string) (column, error) {
	switch name {
	case IDComponent:
		return column{kind: idColumn, name: name, pos: -1}, nil
	case MetaComponent:
		return column{kind: metaColumn, name: name, pos: -1}, nil
	}
	pos, ok := e.componentIndex[name]
	if !ok {
		return column{}, eris.Wrapf(ErrUnknownComponent, "component %q", name)
	}
	return column{kind: userColumn, name: name, pos: pos}, nil
}
