package entities

import "fmt"

// StaleIdentifierError reports use of an identifier whose slot has since been
// freed or reused (generation mismatch).
type StaleIdentifierError struct {
	ID Identifier
}

func (e StaleIdentifierError) Error() string {
	return fmt.Sprintf("stale identifier: type %d slot %d generation %d", e.ID.TypeID, e.ID.Slot, e.ID.Generation)
}

// StaleHandleError is the sparse-pool analogue of StaleIdentifierError.
type StaleHandleError struct {
	Handle Handle
}

func (e StaleHandleError) Error() string {
	return fmt.Sprintf("stale handle: slot %d generation %d", e.Handle.Slot, e.Handle.Generation)
}

// NotFoundError reports an identifier or handle that never referenced an
// occupant: slot out of range, zero value, or no storage bound for its type.
type NotFoundError struct {
	ID Identifier
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("not found: type %d slot %d", e.ID.TypeID, e.ID.Slot)
}

// TypeMismatchError reports a typed lookup whose identifier belongs to a
// different concrete type, or a fragment access with the wrong Go type.
type TypeMismatchError struct {
	Requested string
	Stored    string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: requested %s, stored %s", e.Requested, e.Stored)
}

type UnknownFragmentError struct {
	Name string
}

func (e UnknownFragmentError) Error() string {
	return fmt.Sprintf("unknown fragment: %q", e.Name)
}

type UnknownTypeError struct {
	Name string
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown entity type: %q", e.Name)
}

// DuplicateFragmentError reports re-registration of a fragment name with a
// conflicting layout. Identical re-registration is idempotent and succeeds.
type DuplicateFragmentError struct {
	Name string
}

func (e DuplicateFragmentError) Error() string {
	return fmt.Sprintf("fragment already registered with a different layout: %q", e.Name)
}

// DuplicateTypeError reports re-registration of an entity type name with a
// conflicting layout, or binding two storages to one type.
type DuplicateTypeError struct {
	Name string
}

func (e DuplicateTypeError) Error() string {
	return fmt.Sprintf("entity type already registered: %q", e.Name)
}

// SealedRegistryError reports registration attempted after the world began
// creating entities.
type SealedRegistryError struct{}

func (e SealedRegistryError) Error() string {
	return "registry is sealed; registration is only permitted before the first entity is created"
}

// LockedWorldError reports a direct structural mutation while a traversal
// holds the world lock. Use the Enqueue variants instead.
type LockedWorldError struct{}

func (e LockedWorldError) Error() string {
	return "world is locked during iteration; enqueue structural changes instead"
}

// InvalidLayoutError reports a declared layout that cannot be honored:
// out-of-bounds or overlapping offsets, misalignment, or a concrete Go type
// that does not match its descriptor.
type InvalidLayoutError struct {
	Type     string
	Fragment string
	Reason   string
}

func (e InvalidLayoutError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("invalid layout for type %q, fragment %q: %s", e.Type, e.Fragment, e.Reason)
	}
	return fmt.Sprintf("invalid layout for type %q: %s", e.Type, e.Reason)
}

// CapacityError reports a fixed-capacity structure that is full.
type CapacityError struct {
	What string
	Max  int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("%s at maximum capacity (%d)", e.What, e.Max)
}
