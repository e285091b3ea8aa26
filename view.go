package entities

import (
	"reflect"
	"unsafe"
)

// Fragments returns the names this view exposes, in request order.
func (v View) Fragments() []string {
	names := make([]string, len(v.fields))
	for i, f := range v.fields {
		names[i] = f.name
	}
	return names
}

// Has reports whether the view exposes the named fragment.
func (v View) Has(name string) bool {
	_, ok := v.field(name)
	return ok
}

func (v View) field(name string) (viewField, bool) {
	// Requested sets are tiny; a scan beats a map here.
	for _, f := range v.fields {
		if f.name == name {
			return f, true
		}
	}
	return viewField{}, false
}

// FragmentOf resolves the named fragment of the viewed entity as a *F. The
// fragment must be part of the view's requested set and F's size must match
// the registered fragment layout. The returned reference shares the view's
// lifetime: one iteration step.
func FragmentOf[F any](v View, name string) (*F, error) {
	f, ok := v.field(name)
	if !ok {
		return nil, UnknownFragmentError{Name: name}
	}
	if unsafe.Sizeof(*new(F)) != f.size {
		return nil, TypeMismatchError{
			Requested: reflect.TypeOf((*F)(nil)).Elem().String(),
			Stored:    name,
		}
	}
	if f.offset+f.size > v.size {
		// Registration already bounds-checks offsets; this guards a view
		// constructed against the wrong descriptor.
		return nil, InvalidLayoutError{Fragment: name, Reason: "offset past the end of the instance"}
	}
	return (*F)(unsafe.Add(v.base, f.offset)), nil
}
