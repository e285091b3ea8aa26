package entities

import (
	"fmt"
	"iter"
	"reflect"
	"unsafe"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// World owns one Buffer per registered entity type plus the sparse fragment
// pools, and is the single component that routes an identifier to its buffer.
// One logical owner per World: a single simulation thread drives creation,
// destruction, and iteration.
type World struct {
	id       string
	registry *Registry
	log      *zap.Logger

	locks   int
	opQueue opQueue

	buffers  []storage // indexed by TypeDescriptor.ID - 1
	byGoType map[reflect.Type]storage
	pools    map[string]sparsePool

	planCache Cache[queryPlan]
}

// Option configures a World at construction.
type Option func(*World)

// WithLogger attaches a structured logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *World) {
		w.log = log
	}
}

func newWorld(registry *Registry, opts ...Option) *World {
	w := &World{
		id:        uuid.NewString(),
		registry:  registry,
		log:       zap.NewNop(),
		opQueue:   newOpQueue(),
		byGoType:  make(map[reflect.Type]storage),
		pools:     make(map[string]sparsePool),
		planCache: FactoryNewCache[queryPlan](Config.planCacheCapacity),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.With(zap.String("world", w.id))
	return w
}

// Registry returns the registry this world was built around.
func (w *World) Registry() *Registry {
	return w.registry
}

// RegisterStorage binds concrete type T to the named type descriptor and
// creates its buffer. T must embed EntityBase as its first field and its size
// must match the registered layout. Storage binding is part of setup and is
// rejected once the registry is sealed.
func RegisterStorage[T any](w *World, typeName string) (*Buffer[T], error) {
	if w.registry.Sealed() {
		return nil, SealedRegistryError{}
	}
	desc, ok := w.registry.typeByName(typeName)
	if !ok {
		return nil, UnknownTypeError{Name: typeName}
	}

	var zero T
	inst, ok := any(&zero).(Instance)
	if !ok {
		return nil, InvalidLayoutError{Type: typeName, Reason: "concrete type must embed EntityBase"}
	}
	if unsafe.Pointer(inst.entityBase()) != unsafe.Pointer(&zero) {
		return nil, InvalidLayoutError{Type: typeName, Reason: "EntityBase must be the first field"}
	}
	if unsafe.Sizeof(zero) != desc.Size {
		return nil, InvalidLayoutError{
			Type:   typeName,
			Reason: fmt.Sprintf("instance size %d does not match registered size %d", unsafe.Sizeof(zero), desc.Size),
		}
	}

	if int(desc.ID) > len(w.buffers) {
		grown := make([]storage, w.registry.typeCount())
		copy(grown, w.buffers)
		w.buffers = grown
	}
	if w.buffers[desc.ID-1] != nil {
		return nil, DuplicateTypeError{Name: typeName}
	}

	buf := newBuffer[T](desc)
	w.buffers[desc.ID-1] = buf
	w.byGoType[reflect.TypeOf(zero)] = buf
	w.log.Debug("storage bound",
		zap.String("type", typeName),
		zap.Uint16("typeID", desc.ID),
	)
	return buf, nil
}

// seal closes the registration phase the first time the world mutates or
// queries entity storage.
func (w *World) seal() {
	if w.registry.Sealed() {
		return
	}
	w.registry.Seal()
	w.log.Info("registry sealed",
		zap.Int("types", w.registry.typeCount()),
		zap.Int("fragments", w.registry.fragmentCount()),
	)
}

// Create stores value in its type's buffer and returns the new identifier.
// The first creation seals the registry.
func Create[T any](w *World, value T) (Identifier, error) {
	if w.Locked() {
		return Identifier{}, LockedWorldError{}
	}
	sto, ok := w.byGoType[reflect.TypeOf(value)]
	if !ok {
		return Identifier{}, UnknownTypeError{Name: reflect.TypeOf(value).String()}
	}
	w.seal()
	buf := sto.(*Buffer[T])
	id := buf.Insert(value)
	w.log.Debug("entity created",
		zap.String("type", sto.descriptor().Name),
		zap.Uint32("slot", id.Slot),
		zap.Uint32("generation", id.Generation),
	)
	return id, nil
}

// EnqueueCreate creates immediately when the world is unlocked, and otherwise
// defers the creation until the lock is released.
func EnqueueCreate[T any](w *World, value T) error {
	if !w.Locked() {
		_, err := Create(w, value)
		if err != nil {
			return fmt.Errorf("failed to create entity directly: %w", err)
		}
		return nil
	}
	w.opQueue.enqueueCreate(func(w *World) error {
		_, err := Create(w, value)
		return err
	})
	return nil
}

// Destroy removes the identified entity from its buffer. Any sparse handles
// the instance held must be released by the destroying code path; the world
// does not track them.
func (w *World) Destroy(id Identifier) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	sto, err := w.storageFor(id)
	if err != nil {
		return err
	}
	if err := sto.remove(id); err != nil {
		return err
	}
	w.log.Debug("entity destroyed",
		zap.String("type", sto.descriptor().Name),
		zap.Uint32("slot", id.Slot),
		zap.Uint32("generation", id.Generation),
	)
	return nil
}

// EnqueueDestroy destroys immediately when the world is unlocked, and
// otherwise defers the destruction until the lock is released. Duplicate
// enqueues of one identifier are coalesced.
func (w *World) EnqueueDestroy(id Identifier) error {
	if !w.Locked() {
		return w.Destroy(id)
	}
	w.opQueue.enqueueDestroy(id)
	return nil
}

// Get returns a typed reference to the identified entity. The identifier's
// type tag must agree with T.
func Get[T any](w *World, id Identifier) (*T, error) {
	sto, err := w.storageFor(id)
	if err != nil {
		return nil, err
	}
	buf, ok := sto.(*Buffer[T])
	if !ok {
		var zero T
		return nil, TypeMismatchError{
			Requested: reflect.TypeOf(zero).String(),
			Stored:    sto.descriptor().Name,
		}
	}
	return buf.Get(id)
}

// EachEntity returns a lazy traversal over every live entity of concrete type
// T, in storage order.
func EachEntity[T any](w *World) (iter.Seq2[Identifier, *T], error) {
	var zero T
	sto, ok := w.byGoType[reflect.TypeOf(zero)]
	if !ok {
		return nil, UnknownTypeError{Name: reflect.TypeOf(zero).String()}
	}
	return sto.(*Buffer[T]).ForEach(), nil
}

func (w *World) storageFor(id Identifier) (storage, error) {
	if !id.Valid() || int(id.TypeID) > len(w.buffers) {
		return nil, NotFoundError{ID: id}
	}
	sto := w.buffers[id.TypeID-1]
	if sto == nil {
		return nil, NotFoundError{ID: id}
	}
	return sto, nil
}

// EntityCount returns the number of live entities across all buffers.
func (w *World) EntityCount() int {
	total := 0
	for _, sto := range w.buffers {
		if sto != nil {
			total += sto.length()
		}
	}
	return total
}

// Lock defers structural changes until the matching Unlock. Locks nest;
// query traversals hold one for their duration.
func (w *World) Lock() {
	w.locks++
}

// Unlock releases one lock. Releasing the last lock flushes the deferred
// operation queue: creations first, then destructions.
func (w *World) Unlock() error {
	if w.locks == 0 {
		return nil
	}
	w.locks--
	if w.locks > 0 {
		return nil
	}
	return w.processOperationQueue()
}

// Locked reports whether any lock is held.
func (w *World) Locked() bool {
	return w.locks > 0
}
