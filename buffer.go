package entities

import (
	"iter"
	"unsafe"
)

var _ storage = &Buffer[struct{ EntityBase }]{}

// slot pairs one entity instance with its occupancy state. Generation starts
// at 1 on first use and is bumped on every removal, so a freed or reused slot
// can never satisfy an old identifier.
type slot[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

// Buffer is contiguous, growable storage for every entity of one concrete
// type T. Slot indices are stable across unrelated inserts and removals;
// removal never relocates other entities.
//
// A Buffer provides no internal locking and must be driven by a single owner.
// Insert and Remove during a ForEach traversal of the same buffer are
// forbidden; defer them through the owning World's Enqueue variants.
type Buffer[T any] struct {
	desc  *TypeDescriptor
	slots []slot[T]
	free  []uint32
	count int
}

func newBuffer[T any](desc *TypeDescriptor) *Buffer[T] {
	return &Buffer[T]{
		desc:  desc,
		slots: make([]slot[T], 0, Config.initialBufferCapacity),
	}
}

// Insert stores value in a free slot (recycling a freed index when one is
// available, growing otherwise) and returns its identifier. The identifier is
// also written into the instance's base fields. O(1) amortized.
func (b *Buffer[T]) Insert(value T) Identifier {
	var idx uint32
	if n := len(b.free); n > 0 {
		idx = b.free[n-1]
		b.free = b.free[:n-1]
	} else {
		b.slots = append(b.slots, slot[T]{})
		idx = uint32(len(b.slots) - 1)
	}
	s := &b.slots[idx]
	s.value = value
	s.occupied = true
	if s.generation == 0 {
		s.generation = 1
	}
	id := Identifier{TypeID: b.desc.ID, Slot: idx, Generation: s.generation}
	any(&s.value).(Instance).entityBase().ID = id
	b.count++
	return id
}

// Remove frees the identified slot and bumps its generation, invalidating the
// identifier and any reference previously issued for the slot. Other slots
// are untouched.
func (b *Buffer[T]) Remove(id Identifier) error {
	s, err := b.lookup(id)
	if err != nil {
		return err
	}
	var zero T
	s.value = zero
	s.occupied = false
	s.generation++
	b.free = append(b.free, id.Slot)
	b.count--
	return nil
}

// Get returns a reference to the identified instance. The reference is valid
// until the next structural change to this buffer.
func (b *Buffer[T]) Get(id Identifier) (*T, error) {
	s, err := b.lookup(id)
	if err != nil {
		return nil, err
	}
	return &s.value, nil
}

func (b *Buffer[T]) lookup(id Identifier) (*slot[T], error) {
	if id.TypeID != b.desc.ID || id.Generation == 0 {
		return nil, NotFoundError{ID: id}
	}
	if int(id.Slot) >= len(b.slots) {
		return nil, NotFoundError{ID: id}
	}
	s := &b.slots[id.Slot]
	if !s.occupied || s.generation != id.Generation {
		return nil, StaleIdentifierError{ID: id}
	}
	return s, nil
}

// ForEach returns a lazy, restartable traversal of occupied slots in storage
// order. Fields of a yielded instance may be mutated; identity may not.
// Re-invoking the sequence produces a fresh traversal of the current state.
func (b *Buffer[T]) ForEach() iter.Seq2[Identifier, *T] {
	return func(yield func(Identifier, *T) bool) {
		for i := range b.slots {
			s := &b.slots[i]
			if !s.occupied {
				continue
			}
			id := Identifier{TypeID: b.desc.ID, Slot: uint32(i), Generation: s.generation}
			if !yield(id, &s.value) {
				return
			}
		}
	}
}

// Len returns the number of live entities in the buffer.
func (b *Buffer[T]) Len() int {
	return b.count
}

// Descriptor returns the registered layout this buffer was bound to.
func (b *Buffer[T]) Descriptor() *TypeDescriptor {
	return b.desc
}

func (b *Buffer[T]) descriptor() *TypeDescriptor { return b.desc }

func (b *Buffer[T]) length() int { return b.count }

func (b *Buffer[T]) remove(id Identifier) error { return b.Remove(id) }

func (b *Buffer[T]) each(visit func(Identifier, unsafe.Pointer) bool) {
	for i := range b.slots {
		s := &b.slots[i]
		if !s.occupied {
			continue
		}
		id := Identifier{TypeID: b.desc.ID, Slot: uint32(i), Generation: s.generation}
		if !visit(id, unsafe.Pointer(&s.value)) {
			return
		}
	}
}
