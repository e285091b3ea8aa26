package entities

import (
	"unsafe"
)

// Identifier uniquely names one logical entity for its lifetime. The zero
// Identifier is never issued and is always invalid.
type Identifier struct {
	// TypeID is the registration-order tag of the owning entity type (1-based).
	TypeID uint16
	// Slot is the index of the entity inside its type's buffer.
	Slot uint32
	// Generation detects reuse: the identifier is live only while it matches
	// the slot's current generation.
	Generation uint32
}

// Valid reports whether the identifier could ever have been issued. It does
// not check liveness; use World or Buffer lookups for that.
func (id Identifier) Valid() bool {
	return id.TypeID != 0 && id.Generation != 0
}

// Handle references one block inside a sparse fragment Pool. Like Identifier,
// a freed-and-reused slot bumps the generation so stale handles are caught.
type Handle struct {
	Slot       uint32
	Generation uint32
}

// Valid reports whether the handle could ever have been issued by a pool.
func (h Handle) Valid() bool {
	return h.Generation != 0
}

// Vec2 is the spatial position carried by every entity's base fields.
type Vec2 struct {
	X, Y float64
}

// EntityBase holds the common fields every concrete entity type must begin
// with. Embed it as the first field of the concrete struct; storage
// registration rejects types that don't.
type EntityBase struct {
	ID       Identifier
	Name     string
	Flags    uint32
	Position Vec2
}

func (b *EntityBase) entityBase() *EntityBase { return b }

// Instance is satisfied by any concrete entity type embedding EntityBase.
type Instance interface {
	entityBase() *EntityBase
}

// storage is the untyped facade World and the query engine use to reach a
// Buffer[T] without knowing T. Concrete access always goes through the typed
// Buffer; this surface exists only for routing and offset-based iteration.
type storage interface {
	descriptor() *TypeDescriptor
	length() int
	remove(id Identifier) error
	each(visit func(id Identifier, base unsafe.Pointer) bool)
}

// sparsePool is the untyped facade World keeps over a Pool[F].
type sparsePool interface {
	fragmentName() string
	length() int
}

type Cache[T any] interface {
	Get(key uint64) (*T, bool)
	Register(key uint64, item T) error
}

// View is a short-lived accessor over exactly the fragments one query
// requested of one entity. A View is only valid for the iteration step that
// produced it; do not retain it across steps or structural changes.
type View struct {
	base   unsafe.Pointer
	size   uintptr
	fields []viewField
}

type SimpleCache[T any] struct {
	items       []T
	itemIndices map[uint64]int
	maxCapacity int
}
