package compositor

import (
	"sync"

	"github.com/user/imageseq/pkg/pipeline"
)

// DefaultPoolDepth is the number of idle buffers kept per frame size.
const DefaultPoolDepth = 4

// PoolStats reports buffer pool activity.
type PoolStats struct {
	Allocated int // Buffers created with NewFrame
	Reused    int // Gets served from the free list
	Idle      int // Buffers currently in the free list
}

// BufferPool recycles frame buffers by size. Released frames return to the
// free list; the caller must clear pixels before reuse.
type BufferPool struct {
	mu    sync.Mutex
	depth int
	free  map[pipeline.Size][]*pipeline.Frame
	stats PoolStats
}

// NewBufferPool creates a pool keeping at most depth idle buffers per size.
func NewBufferPool(depth int) *BufferPool {
	if depth < 0 {
		depth = 0
	}
	return &BufferPool{
		depth: depth,
		free:  make(map[pipeline.Size][]*pipeline.Frame),
	}
}

// Get returns an unlocked frame of the given size.
func (p *BufferPool) Get(size pipeline.Size) (*pipeline.Frame, error) {
	p.mu.Lock()
	if list := p.free[size]; len(list) > 0 {
		f := list[len(list)-1]
		p.free[size] = list[:len(list)-1]
		p.stats.Reused++
		p.stats.Idle--
		p.mu.Unlock()
		f.Reuse()
		return f, nil
	}
	p.mu.Unlock()

	f, err := pipeline.NewFrame(size)
	if err != nil {
		return nil, err
	}
	f.SetRecycler(p.put)

	p.mu.Lock()
	p.stats.Allocated++
	p.mu.Unlock()
	return f, nil
}

func (p *BufferPool) put(f *pipeline.Frame) {
	size := f.Size()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free[size]) >= p.depth {
		return
	}
	p.free[size] = append(p.free[size], f)
	p.stats.Idle++
}

// Stats returns a snapshot of pool counters.
func (p *BufferPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
