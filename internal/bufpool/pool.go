package bufpool

import "sync"

// Size is the initial capacity of pooled scanner buffers.
const Size = 64 * 1024

// MaxToken is the longest token a scanner using a pooled buffer accepts.
const MaxToken = 1 << 20

var bufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, Size)
		return &buf
	},
}

// Acquire obtains an empty buffer from the pool.
//
//go:inline
func Acquire() *[]byte {
	buf := bufPool.Get().(*[]byte)
	*buf = (*buf)[:0]
	return buf
}

// Release returns buf to the pool.
//
//go:inline
func Release(buf *[]byte) {
	if buf == nil {
		return
	}
	*buf = (*buf)[:0]
	bufPool.Put(buf)
}
