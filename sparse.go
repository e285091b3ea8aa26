package entities

import (
	"reflect"
	"unsafe"
)

var _ sparsePool = &Pool[struct{}]{}

type poolSlot[F any] struct {
	value      F
	generation uint32
	occupied   bool
}

// Pool is a free-list-backed allocator for one sparse fragment type F. It
// hands out generation-checked handles for optionally-attached data blocks,
// decoupled from the owning entity's storage slot. The pool owns the blocks;
// an entity references one only through a Handle stored inline in its
// instance, and releasing handles on entity destruction is the destroying
// caller's responsibility.
//
// Pools are independent of each other and of buffers, and follow the same
// single-owner, non-reentrant discipline.
type Pool[F any] struct {
	fragment string
	slots    []poolSlot[F]
	free     []uint32
	count    int
}

func newPool[F any](fragment string) *Pool[F] {
	return &Pool[F]{
		fragment: fragment,
		slots:    make([]poolSlot[F], 0, Config.initialPoolCapacity),
	}
}

// Alloc stores value in a free block (recycling a freed slot when one is
// available, growing otherwise) and returns its handle.
func (p *Pool[F]) Alloc(value F) Handle {
	var idx uint32
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		p.slots = append(p.slots, poolSlot[F]{})
		idx = uint32(len(p.slots) - 1)
	}
	s := &p.slots[idx]
	s.value = value
	s.occupied = true
	if s.generation == 0 {
		s.generation = 1
	}
	p.count++
	return Handle{Slot: idx, Generation: s.generation}
}

// Free releases the block and bumps its generation. Double-free reports
// StaleHandleError and never corrupts other blocks.
func (p *Pool[F]) Free(h Handle) error {
	s, err := p.lookup(h)
	if err != nil {
		return err
	}
	var zero F
	s.value = zero
	s.occupied = false
	s.generation++
	p.free = append(p.free, h.Slot)
	p.count--
	return nil
}

// Get returns a reference to the block. The reference is valid until the next
// structural change to this pool.
func (p *Pool[F]) Get(h Handle) (*F, error) {
	s, err := p.lookup(h)
	if err != nil {
		return nil, err
	}
	return &s.value, nil
}

func (p *Pool[F]) lookup(h Handle) (*poolSlot[F], error) {
	if h.Generation == 0 || int(h.Slot) >= len(p.slots) {
		return nil, NotFoundError{ID: Identifier{Slot: h.Slot, Generation: h.Generation}}
	}
	s := &p.slots[h.Slot]
	if !s.occupied || s.generation != h.Generation {
		return nil, StaleHandleError{Handle: h}
	}
	return s, nil
}

// Len returns the number of live blocks.
func (p *Pool[F]) Len() int {
	return p.count
}

// Fragment returns the fragment name this pool was registered for.
func (p *Pool[F]) Fragment() string {
	return p.fragment
}

func (p *Pool[F]) fragmentName() string { return p.fragment }

func (p *Pool[F]) length() int { return p.count }

// RegisterPool creates the world-owned sparse pool for the named fragment.
// F's size must match the registered fragment layout, and one fragment gets
// at most one pool. Pool binding is part of setup and is rejected once the
// registry is sealed.
func RegisterPool[F any](w *World, fragmentName string) (*Pool[F], error) {
	if w.registry.Sealed() {
		return nil, SealedRegistryError{}
	}
	fd, ok := w.registry.fragmentByName(fragmentName)
	if !ok {
		return nil, UnknownFragmentError{Name: fragmentName}
	}
	var zero F
	if unsafe.Sizeof(zero) != fd.Size {
		return nil, InvalidLayoutError{
			Fragment: fragmentName,
			Reason:   "pool element size does not match registered fragment size",
		}
	}
	if _, exists := w.pools[fragmentName]; exists {
		return nil, DuplicateFragmentError{Name: fragmentName}
	}
	pool := newPool[F](fragmentName)
	w.pools[fragmentName] = pool
	return pool, nil
}

// PoolOf returns the previously registered pool for the named fragment,
// type-checked against F.
func PoolOf[F any](w *World, fragmentName string) (*Pool[F], error) {
	sp, ok := w.pools[fragmentName]
	if !ok {
		return nil, UnknownFragmentError{Name: fragmentName}
	}
	pool, ok := sp.(*Pool[F])
	if !ok {
		return nil, TypeMismatchError{
			Requested: reflect.TypeOf((*F)(nil)).Elem().String(),
			Stored:    fragmentName,
		}
	}
	return pool, nil
}
