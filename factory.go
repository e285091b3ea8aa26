package entities

type factory struct{}

// Factory builds the package's top-level objects.
var Factory factory

func (f factory) NewRegistry() *Registry {
	return newRegistry()
}

func (f factory) NewWorld(registry *Registry, opts ...Option) *World {
	return newWorld(registry, opts...)
}

func FactoryNewCache[T any](capacity int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[uint64]int),
		maxCapacity: capacity,
	}
}
