package entities

var _ Cache[any] = &SimpleCache[any]{}

func (c *SimpleCache[T]) Get(key uint64) (*T, bool) {
	index, ok := c.itemIndices[key]
	if !ok {
		return nil, false
	}
	return &c.items[index], true
}

func (c *SimpleCache[T]) Register(key uint64, item T) error {
	if _, ok := c.itemIndices[key]; ok {
		return nil
	}
	if len(c.itemIndices) >= c.maxCapacity {
		return CapacityError{What: "cache", Max: c.maxCapacity}
	}
	c.itemIndices[key] = len(c.items)
	c.items = append(c.items, item)
	return nil
}

func (c *SimpleCache[T]) Clear() {
	c.items = c.items[:0]
	c.itemIndices = make(map[uint64]int)
}
