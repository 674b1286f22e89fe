// Byte buffer pool for the wire encoding hot path
//
// Reply formatting runs once per received command and once per program
// statement that produces output, so the encoder reuses buffers instead
// of allocating per line.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import (
	"sync"
)

// ByteBuffer is a reusable append buffer for building wire lines.
type ByteBuffer struct {
	buf []byte
}

var byteBufferPool = sync.Pool{
	New: func() any {
		return &ByteBuffer{
			buf: make([]byte, 0, 64), // typical wire line size
		}
	},
}

// GetByteBuffer gets an empty buffer from the pool.
func GetByteBuffer() *ByteBuffer {
	b := byteBufferPool.Get().(*ByteBuffer)
	b.buf = b.buf[:0]
	return b
}

// PutByteBuffer returns a buffer to the pool. Oversized buffers are
// dropped so a single long program listing does not pin memory.
func PutByteBuffer(b *ByteBuffer) {
	if b == nil || cap(b.buf) > 4096 {
		return
	}
	byteBufferPool.Put(b)
}

// Bytes returns the buffer's byte slice.
func (b *ByteBuffer) Bytes() []byte {
	return b.buf
}

// String copies the contents out as a string.
func (b *ByteBuffer) String() string {
	return string(b.buf)
}

// Write appends bytes to the buffer.
func (b *ByteBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte appends a single byte.
func (b *ByteBuffer) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// WriteString appends a string.
func (b *ByteBuffer) WriteString(s string) (int, error) {
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// Len returns the buffer length.
func (b *ByteBuffer) Len() int {
	return len(b.buf)
}

// Reset clears the buffer, keeping capacity.
func (b *ByteBuffer) Reset() {
	b.buf = b.buf[:0]
}
