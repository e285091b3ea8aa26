package entities

import (
	"iter"
	"sort"
	"strings"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// viewField locates one requested fragment inside an entity instance.
type viewField struct {
	name   string
	offset uintptr
	size   uintptr
}

// typeMatch pairs one matching type's storage with the field table for the
// requested fragments.
type typeMatch struct {
	sto    storage
	size   uintptr
	fields []viewField
}

// queryPlan is the fixed result of structural matching for one fragment set:
// every matching type in registration order, with per-type offset tables.
// Plans are built against the sealed registry and cached, so matching cost is
// proportional to the number of registered types and paid once per fragment
// set, never per entity.
type queryPlan struct {
	fragments []string
	matches   []typeMatch
}

// EachEntityWith returns a lazy, restartable traversal over every live entity
// whose type contains all the requested fragments. Iteration order is types
// in registration order, then slots in storage order, and is stable across
// runs given identical registration and insertion order.
//
// Each step yields the entity's identifier and a View exposing exactly the
// requested fragments. Views must not be retained across steps. The world is
// locked for the duration of one traversal; structural changes made through
// the Enqueue variants are flushed when the traversal ends.
func (w *World) EachEntityWith(fragments ...string) (iter.Seq2[Identifier, View], error) {
	w.seal()
	plan, err := w.planFor(fragments)
	if err != nil {
		return nil, err
	}
	return func(yield func(Identifier, View) bool) {
		w.Lock()
		defer w.unlockAfterTraversal()
		for _, m := range plan.matches {
			stopped := false
			m.sto.each(func(id Identifier, base unsafe.Pointer) bool {
				if !yield(id, View{base: base, size: m.size, fields: m.fields}) {
					stopped = true
					return false
				}
				return true
			})
			if stopped {
				return
			}
		}
	}, nil
}

// CountEntitiesWith returns how many live entities a query would yield.
func (w *World) CountEntitiesWith(fragments ...string) (int, error) {
	w.seal()
	plan, err := w.planFor(fragments)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, m := range plan.matches {
		total += m.sto.length()
	}
	return total, nil
}

func (w *World) unlockAfterTraversal() {
	if err := w.Unlock(); err != nil {
		w.log.Error("failed to flush deferred operations after traversal", zap.Error(err))
	}
}

func (w *World) planFor(fragments []string) (*queryPlan, error) {
	key := planKey(fragments)
	if plan, ok := w.planCache.Get(key); ok && sameFragments(plan.fragments, fragments) {
		return plan, nil
	}

	matchedTypes, err := w.registry.TypesContaining(fragments...)
	if err != nil {
		return nil, err
	}
	plan := queryPlan{
		fragments: append([]string(nil), fragments...),
	}
	for _, typeName := range matchedTypes {
		desc, _ := w.registry.typeByName(typeName)
		if int(desc.ID) > len(w.buffers) || w.buffers[desc.ID-1] == nil {
			// Type registered but no storage bound: it can hold no entities.
			continue
		}
		fields := make([]viewField, 0, len(fragments))
		for _, name := range fragments {
			f, ok := desc.field(name)
			if !ok {
				continue
			}
			fields = append(fields, f)
		}
		plan.matches = append(plan.matches, typeMatch{
			sto:    w.buffers[desc.ID-1],
			size:   desc.Size,
			fields: fields,
		})
	}

	if err := w.planCache.Register(key, plan); err != nil {
		// A full cache only costs a rebuild on the next identical query.
		w.log.Debug("query plan not cached", zap.Error(err), zap.Strings("fragments", fragments))
		return &plan, nil
	}
	if cached, ok := w.planCache.Get(key); ok && sameFragments(cached.fragments, fragments) {
		return cached, nil
	}
	// Key collision with a different fragment set already in the cache.
	return &plan, nil
}

// planKey hashes the canonical (sorted) fragment set, so request order does
// not fragment the cache.
func planKey(fragments []string) uint64 {
	sorted := append([]string(nil), fragments...)
	sort.Strings(sorted)
	return xxhash.Sum64String(strings.Join(sorted, "\x1f"))
}

// sameFragments guards the plan cache against hash collisions by comparing
// canonical fragment sets.
func sameFragments(a, b []string) bool {
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
