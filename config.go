package entities

// Config holds global defaults for newly created buffers, pools, and worlds.
var Config config = config{
	initialBufferCapacity: 64,
	initialPoolCapacity:   64,
	planCacheCapacity:     128,
}

type config struct {
	initialBufferCapacity int
	initialPoolCapacity   int
	planCacheCapacity     int
}

// SetInitialBufferCapacity sets the slot capacity new buffers reserve.
func (c *config) SetInitialBufferCapacity(n int) {
	if n > 0 {
		c.initialBufferCapacity = n
	}
}

// SetInitialPoolCapacity sets the block capacity new sparse pools reserve.
func (c *config) SetInitialPoolCapacity(n int) {
	if n > 0 {
		c.initialPoolCapacity = n
	}
}

// SetPlanCacheCapacity sets how many query plans a world caches.
func (c *config) SetPlanCacheCapacity(n int) {
	if n > 0 {
		c.planCacheCapacity = n
	}
}
