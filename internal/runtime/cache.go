package runtime

import "github.com/aretw0/sinew/pkg/domain"

// Cache memoizes resolved sources, partitioned by the kind of result.
// The timestamp partition is the per-source "previous time" memo: it survives
// Flush so Delta updates keep accumulating across frames.
type Cache struct {
	data      map[domain.SourcePin]domain.Value
	durations map[domain.SourcePin]domain.Duration
	poses     map[domain.SourcePin]domain.Pose
	updates   map[domain.SourcePin]domain.TimeUpdate
	times     map[domain.SourcePin]float64

	// driven records the update each pose pass ran with this frame.
	driven map[domain.NodeID]domain.TimeUpdate
	// states shadows node-local state while the cache is used as a temp cache.
	states map[domain.NodeID]any
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	c := &Cache{times: make(map[domain.SourcePin]float64)}
	c.Flush()
	return c
}

// Flush drops every per-frame result and keeps timestamps.
func (c *Cache) Flush() {
	c.data = make(map[domain.SourcePin]domain.Value)
	c.durations = make(map[domain.SourcePin]domain.Duration)
	c.poses = make(map[domain.SourcePin]domain.Pose)
	c.updates = make(map[domain.SourcePin]domain.TimeUpdate)
	c.driven = make(map[domain.NodeID]domain.TimeUpdate)
	c.states = make(map[domain.NodeID]any)
}

// FlushData drops data, duration and time update results. Poses and the
// node state shadowed with them stay, so clips advance at most once a frame.
func (c *Cache) FlushData() {
	c.data = make(map[domain.SourcePin]domain.Value)
	c.durations = make(map[domain.SourcePin]domain.Duration)
	c.updates = make(map[domain.SourcePin]domain.TimeUpdate)
}

// Forget removes every entry for one source, timestamp included.
func (c *Cache) Forget(src domain.SourcePin) {
	delete(c.data, src)
	delete(c.durations, src)
	delete(c.poses, src)
	delete(c.updates, src)
	delete(c.times, src)
	if !src.IsBoundary() {
		delete(c.driven, src.Node)
		delete(c.states, src.Node)
	}
}

// Len is the number of memoized results, timestamps excluded.
func (c *Cache) Len() int {
	return len(c.data) + len(c.durations) + len(c.poses) + len(c.updates)
}

func (c *Cache) Data(src domain.SourcePin) (domain.Value, bool) {
	v, ok := c.data[src]
	return v, ok
}

func (c *Cache) Pose(src domain.SourcePin) (domain.Pose, bool) {
	p, ok := c.poses[src]
	return p, ok
}

func (c *Cache) Duration(src domain.SourcePin) (domain.Duration, bool) {
	d, ok := c.durations[src]
	return d, ok
}

func (c *Cache) TimeUpdate(src domain.SourcePin) (domain.TimeUpdate, bool) {
	u, ok := c.updates[src]
	return u, ok
}

// Time returns the last timestamp recorded for src.
func (c *Cache) Time(src domain.SourcePin) (float64, bool) {
	t, ok := c.times[src]
	return t, ok
}
