package utils

import (
	"bytes"
	"sync"
)

// MaxPooledBuffer is the largest capacity a released buffer may have and
// still be reused.
const MaxPooledBuffer = 8 << 20

// BufferPool recycles the buffers figures are encoded into.
type BufferPool struct {
	pool   sync.Pool
	maxCap int
}

// NewBufferPool returns a pool that drops buffers grown beyond maxCap.
func NewBufferPool(maxCap int) *BufferPool {
	if maxCap <= 0 {
		maxCap = MaxPooledBuffer
	}
	return &BufferPool{
		pool:   sync.Pool{New: func() any { return new(bytes.Buffer) }},
		maxCap: maxCap,
	}
}

// Get returns an empty buffer.
func (p *BufferPool) Get() *bytes.Buffer {
	b := p.pool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// Put hands b back.  b must not be used afterwards; copy its bytes out first.
func (p *BufferPool) Put(b *bytes.Buffer) {
	if b == nil || b.Cap() > p.maxCap {
		return
	}
	p.pool.Put(b)
}

var encodePool = NewBufferPool(MaxPooledBuffer)

// AcquireBuffer takes a buffer from the shared encode pool.
func AcquireBuffer() *bytes.Buffer { return encodePool.Get() }

// ReleaseBuffer returns b to the shared encode pool.
func ReleaseBuffer(b *bytes.Buffer) { encodePool.Put(b) }
