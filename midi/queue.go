package midi

import (
	"sync"

	"github.com/mrdg/dbsynth/internal/ring"
)

// Queue carries MIDI bytes from any number of producers to a single consumer.
// The consumer side never locks or blocks, so it can be drained from an audio
// callback.
type Queue struct {
	mu  sync.Mutex // serializes producers
	buf *ring.Buffer[byte]
}

func NewQueue(size int) *Queue {
	return &Queue{buf: ring.New[byte](size)}
}

// Push appends bs as one unit, waiting for the consumer while the queue is full.
func (q *Queue) Push(bs ...byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, b := range bs {
		q.buf.Push(b)
	}
}

func (q *Queue) Available() bool {
	return q.buf.Len() > 0
}

// Next returns the oldest byte, or 0 when the queue is empty.
func (q *Queue) Next() byte {
	b, _ := q.buf.Pop()
	return b
}

// Bytes is a Source reading from a fixed byte slice.
type Bytes struct {
	data []byte
}

func NewBytes(data ...byte) *Bytes {
	return &Bytes{data: data}
}

func (b *Bytes) Available() bool { return len(b.data) > 0 }

func (b *Bytes) Next() byte {
	if len(b.data) == 0 {
		return 0
	}
	v := b.data[0]
	b.data = b.data[1:]
	return v
}
