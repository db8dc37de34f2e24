package capture

import "sync"

// Ring is a fixed-capacity FIFO window over the most recent audio chunks.
// Pushing a chunk beyond capacity evicts the oldest entry. It is safe for a
// single writer and a single concurrent reader; Snapshot always observes
// whole chunks, never a partially written one.
type Ring struct {
	mu     sync.Mutex
	chunks [][]byte
	head   int
	size   int
}

// OverlapChunks computes the ring capacity needed to retain overlapSeconds
// of trailing audio: ceil-ish rate*overlap/chunk plus one chunk of slack for
// the chunk in flight when the boundary fires.
func OverlapChunks(sampleRate, chunkSize int, overlapSeconds float64) int {
	return int(float64(sampleRate)*overlapSeconds/float64(chunkSize)) + 1
}

// NewRing creates a ring holding at most capacity chunks.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{chunks: make([][]byte, capacity)}
}

// Cap returns the fixed capacity.
func (r *Ring) Cap() int {
	return len(r.chunks)
}

// Len returns the number of chunks currently held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Push appends a chunk, evicting the oldest once at capacity. The ring
// stores its own copy so callers may reuse the slice.
func (r *Ring) Push(chunk []byte) {
	c := make([]byte, len(chunk))
	copy(c, chunk)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.size < len(r.chunks) {
		r.chunks[(r.head+r.size)%len(r.chunks)] = c
		r.size++
		return
	}
	r.chunks[r.head] = c
	r.head = (r.head + 1) % len(r.chunks)
}

// Snapshot returns the current contents oldest-first without mutating the
// ring. The returned chunks are the ring's immutable copies.
func (r *Ring) Snapshot() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.chunks[(r.head+i)%len(r.chunks)]
	}
	return out
}
