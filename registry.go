package entities

import (
	"iter"
	"sort"
	"unsafe"

	"github.com/TheBitDrifter/mask"
)

// MaxFragments bounds the number of distinct fragments a registry can hold.
// Each fragment owns one bit in the type masks used for query matching.
const MaxFragments = 64

// MaxTypes bounds registered entity types; type tags are uint16 and 0 is
// reserved for the invalid identifier.
const MaxTypes = 1<<16 - 1

// FragmentDescriptor records the immutable layout of one registered fragment.
type FragmentDescriptor struct {
	Name  string
	Size  uintptr
	Align uintptr

	bit uint32
}

// FragmentField declares where a fragment lives inside a concrete entity
// type, as a byte offset from the start of the instance.
type FragmentField struct {
	Name   string
	Offset uintptr
}

// TypeDescriptor records the immutable layout of one registered entity type:
// its instance size and the offset of every fragment it contains.
type TypeDescriptor struct {
	Name string
	// ID is the 1-based registration-order tag embedded in identifiers.
	ID uint16
	// Size is the full byte size of one entity instance.
	Size uintptr

	fields []viewField
	byName map[string]viewField
	mask   mask.Mask
}

// Fragments returns the type's fragment names in declaration order.
func (t *TypeDescriptor) Fragments() []string {
	names := make([]string, len(t.fields))
	for i, f := range t.fields {
		names[i] = f.name
	}
	return names
}

func (t *TypeDescriptor) field(name string) (viewField, bool) {
	f, ok := t.byName[name]
	return f, ok
}

// Registry is the process-wide catalogue of fragments and entity types. It
// has a two-phase lifecycle: open for registration until sealed, read-only
// afterward. The World seals it when the first entity is created, so query
// results can never disagree about which types match.
type Registry struct {
	sealed    bool
	nextBit   uint32
	fragments map[string]*FragmentDescriptor
	fragOrder []string
	types     map[string]*TypeDescriptor
	typeOrder []*TypeDescriptor
}

func newRegistry() *Registry {
	return &Registry{
		fragments: make(map[string]*FragmentDescriptor),
		types:     make(map[string]*TypeDescriptor),
	}
}

// RegisterFragment records a fragment's name and layout. Re-registering an
// identical layout returns the existing descriptor; a conflicting layout
// fails with DuplicateFragmentError.
func (r *Registry) RegisterFragment(name string, size, align uintptr) (*FragmentDescriptor, error) {
	if r.sealed {
		return nil, SealedRegistryError{}
	}
	if name == "" {
		return nil, UnknownFragmentError{Name: name}
	}
	if align == 0 || align&(align-1) != 0 {
		return nil, InvalidLayoutError{Fragment: name, Reason: "alignment must be a power of two"}
	}
	if existing, ok := r.fragments[name]; ok {
		if existing.Size == size && existing.Align == align {
			return existing, nil
		}
		return nil, DuplicateFragmentError{Name: name}
	}
	if r.nextBit >= MaxFragments {
		return nil, CapacityError{What: "fragment registry", Max: MaxFragments}
	}
	fd := &FragmentDescriptor{
		Name:  name,
		Size:  size,
		Align: align,
		bit:   r.nextBit,
	}
	r.nextBit++
	r.fragments[name] = fd
	r.fragOrder = append(r.fragOrder, name)
	return fd, nil
}

// RegisterType records an entity type's instance size and fragment offsets.
// Every named fragment must already be registered, offsets must be aligned,
// non-overlapping, inside the instance, and past the common base prefix.
// Identical re-registration is idempotent.
func (r *Registry) RegisterType(name string, size uintptr, fields []FragmentField) (*TypeDescriptor, error) {
	if r.sealed {
		return nil, SealedRegistryError{}
	}
	if name == "" {
		return nil, UnknownTypeError{Name: name}
	}
	if existing, ok := r.types[name]; ok {
		if r.sameLayout(existing, size, fields) {
			return existing, nil
		}
		return nil, DuplicateTypeError{Name: name}
	}
	if len(r.typeOrder) >= MaxTypes {
		return nil, CapacityError{What: "type registry", Max: MaxTypes}
	}

	baseSize := unsafe.Sizeof(EntityBase{})
	if size < baseSize {
		return nil, InvalidLayoutError{Type: name, Reason: "instance smaller than the common base prefix"}
	}

	td := &TypeDescriptor{
		Name:   name,
		ID:     uint16(len(r.typeOrder) + 1),
		Size:   size,
		fields: make([]viewField, 0, len(fields)),
		byName: make(map[string]viewField, len(fields)),
	}
	for _, f := range fields {
		fd, ok := r.fragments[f.Name]
		if !ok {
			return nil, UnknownFragmentError{Name: f.Name}
		}
		if _, dup := td.byName[f.Name]; dup {
			return nil, InvalidLayoutError{Type: name, Fragment: f.Name, Reason: "fragment declared twice"}
		}
		if f.Offset < baseSize {
			return nil, InvalidLayoutError{Type: name, Fragment: f.Name, Reason: "offset overlaps the common base prefix"}
		}
		if f.Offset+fd.Size > size {
			return nil, InvalidLayoutError{Type: name, Fragment: f.Name, Reason: "offset past the end of the instance"}
		}
		if f.Offset%fd.Align != 0 {
			return nil, InvalidLayoutError{Type: name, Fragment: f.Name, Reason: "offset violates fragment alignment"}
		}
		vf := viewField{name: f.Name, offset: f.Offset, size: fd.Size}
		td.fields = append(td.fields, vf)
		td.byName[f.Name] = vf
		td.mask.Mark(fd.bit)
	}
	if err := checkOverlap(name, td.fields); err != nil {
		return nil, err
	}

	r.types[name] = td
	r.typeOrder = append(r.typeOrder, td)
	return td, nil
}

// sameLayout reports whether a re-registration matches the stored descriptor
// exactly (size plus fields, order included).
func (r *Registry) sameLayout(td *TypeDescriptor, size uintptr, fields []FragmentField) bool {
	if td.Size != size || len(td.fields) != len(fields) {
		return false
	}
	for i, f := range fields {
		if td.fields[i].name != f.Name || td.fields[i].offset != f.Offset {
			return false
		}
	}
	return true
}

func checkOverlap(typeName string, fields []viewField) error {
	sorted := make([]viewField, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].offset < sorted[j].offset })
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if prev.offset+prev.size > sorted[i].offset {
			return InvalidLayoutError{
				Type:     typeName,
				Fragment: sorted[i].name,
				Reason:   "offset overlaps fragment " + prev.name,
			}
		}
	}
	return nil
}

// FragmentsOf returns the fragment names of a registered type.
func (r *Registry) FragmentsOf(typeName string) ([]string, error) {
	td, ok := r.types[typeName]
	if !ok {
		return nil, UnknownTypeError{Name: typeName}
	}
	return td.Fragments(), nil
}

// TypesContaining returns, in registration order, every registered type whose
// fragment set is a superset of the required names. Unregistered names fail
// with UnknownFragmentError rather than silently matching nothing.
func (r *Registry) TypesContaining(required ...string) ([]string, error) {
	requiredMask, err := r.maskFor(required)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, td := range r.typeOrder {
		if td.mask.ContainsAll(requiredMask) {
			names = append(names, td.Name)
		}
	}
	return names, nil
}

func (r *Registry) maskFor(names []string) (mask.Mask, error) {
	var m mask.Mask
	for _, name := range names {
		fd, ok := r.fragments[name]
		if !ok {
			return m, UnknownFragmentError{Name: name}
		}
		m.Mark(fd.bit)
	}
	return m, nil
}

// Seal closes the registration phase. Sealing is one-way and idempotent.
func (r *Registry) Seal() {
	r.sealed = true
}

func (r *Registry) Sealed() bool {
	return r.sealed
}

func (r *Registry) typeByName(name string) (*TypeDescriptor, bool) {
	td, ok := r.types[name]
	return td, ok
}

func (r *Registry) fragmentByName(name string) (*FragmentDescriptor, bool) {
	fd, ok := r.fragments[name]
	return fd, ok
}

// FragmentNames yields registered fragment names in registration order.
func (r *Registry) FragmentNames() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range r.fragOrder {
			if !yield(name) {
				return
			}
		}
	}
}

// TypeNames yields registered type names in registration order.
func (r *Registry) TypeNames() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, td := range r.typeOrder {
			if !yield(td.Name) {
				return
			}
		}
	}
}

func (r *Registry) typeCount() int {
	return len(r.typeOrder)
}

func (r *Registry) fragmentCount() int {
	return len(r.fragOrder)
}
