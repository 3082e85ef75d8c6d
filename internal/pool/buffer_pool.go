package pool

import (
	"bytes"
	"sync"
)

// maxPooledBuffer is the largest capacity kept in the pool.
const maxPooledBuffer = 4096

var bufferPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// GetBuffer borrows an empty scratch buffer. The caller owns it exclusively
// until it is handed back with PutBuffer.
func GetBuffer() *bytes.Buffer {
	buf, _ := bufferPool.Get().(*bytes.Buffer)
	if buf == nil {
		return new(bytes.Buffer)
	}
	buf.Reset()
	return buf
}

// PutBuffer returns buf to the pool. buf must not be used afterwards.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}
