package websocket

import "sync"

// sequentialIDGenerator hands out small viewer ids, reusing the ids of
// viewers that left before growing.
type sequentialIDGenerator struct {
	mutex    sync.Mutex
	last     uint32
	released []uint32
}

func (g *sequentialIDGenerator) New() uint32 {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if n := len(g.released); n != 0 {
		id := g.released[n-1]
		g.released = g.released[:n-1]
		return id
	}

	g.last++
	return g.last
}

func (g *sequentialIDGenerator) Reuse(id uint32) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.released = append(g.released, id)
}
