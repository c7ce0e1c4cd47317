package vindex

import (
	"fmt"

	"github.com/wizenheimer/vindex/store"
)

// Buffer mode bits, ported from the source's BUFFER_READ / BUFFER_WRITE /
// BUFFER_FREEABLE flags (buffer.h in the reference pack).
const (
	ModeRead     = 1 << 0
	ModeWrite    = 1 << 1
	ModeFreeable = 1 << 2
)

// ByteBuffer is a seekable, resizable binary buffer with a pluggable
// backing: either a contiguous in-memory region or a blob in a
// store.Backend. All operations are single-threaded.
type ByteBuffer struct {
	mode int

	// memory-backed state
	data []byte

	// store-backed state
	backend store.Backend
	key     []byte
	cached  []byte // window cache, re-fetched on write or on first read

	offset int
	dirty  bool
}

// NewMemoryBuffer creates an in-memory ByteBuffer over data (which may be
// nil for a fresh write buffer). mode is a bitwise-OR of ModeRead/ModeWrite/
// ModeFreeable.
func NewMemoryBuffer(data []byte, mode int) *ByteBuffer {
	return &ByteBuffer{mode: mode, data: data}
}

// NewStoreBuffer creates a ByteBuffer backed by a blob at key in backend.
// Reads fetch and cache the whole blob on first access; writes append via
// backend.Append and invalidate the cache.
func NewStoreBuffer(backend store.Backend, key []byte, mode int) *ByteBuffer {
	return &ByteBuffer{mode: mode, backend: backend, key: key}
}

func (b *ByteBuffer) isStore() bool { return b.backend != nil }

func (b *ByteBuffer) load() error {
	if !b.isStore() || b.cached != nil {
		return nil
	}
	v, ok, err := b.backend.Get(b.key)
	if err != nil {
		return fmt.Errorf("buffer: load %q: %w", b.key, err)
	}
	if !ok {
		v = nil
	}
	b.cached = v
	return nil
}

func (b *ByteBuffer) bytes() []byte {
	if b.isStore() {
		return b.cached
	}
	return b.data
}

// Len returns the total capacity of the buffer in bytes.
func (b *ByteBuffer) Len() (int, error) {
	if b.isStore() {
		if err := b.load(); err != nil {
			return 0, err
		}
	}
	return len(b.bytes()), nil
}

// Offset returns the current read/write cursor.
func (b *ByteBuffer) Offset() int { return b.offset }

// AtEnd reports whether the cursor has reached the end of the buffer.
func (b *ByteBuffer) AtEnd() (bool, error) {
	n, err := b.Len()
	if err != nil {
		return false, err
	}
	return b.offset >= n, nil
}

// Seek repositions the cursor to an absolute offset.
func (b *ByteBuffer) Seek(off int) error {
	if off < 0 {
		return fmt.Errorf("buffer: negative seek offset %d", off)
	}
	b.offset = off
	return nil
}

// Skip advances the cursor by n bytes.
func (b *ByteBuffer) Skip(n int) error {
	return b.Seek(b.offset + n)
}

// Read returns the next n bytes starting at the cursor and advances it.
func (b *ByteBuffer) Read(n int) ([]byte, error) {
	if err := b.load(); err != nil {
		return nil, err
	}
	buf := b.bytes()
	if b.offset+n > len(buf) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrDecode, n, b.offset, len(buf))
	}
	out := buf[b.offset : b.offset+n]
	b.offset += n
	return out, nil
}

// ReadByte returns the next byte and advances the cursor by one.
func (b *ByteBuffer) ReadByte() (byte, error) {
	out, err := b.Read(1)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// Write appends data to the buffer. For a memory-backed buffer this grows
// the backing slice (doubling capacity as needed); for a store-backed
// buffer it issues backend.Append and invalidates the read cache.
func (b *ByteBuffer) Write(data []byte) (int, error) {
	if b.mode&ModeWrite == 0 {
		return 0, fmt.Errorf("buffer: not opened for writing")
	}
	if b.isStore() {
		if err := b.backend.Append(b.key, data); err != nil {
			return 0, fmt.Errorf("buffer: append %q: %w", b.key, err)
		}
		b.cached = nil // next read re-fetches
		b.offset += len(data)
		return len(data), nil
	}

	need := b.offset + len(data)
	if need > cap(b.data) {
		newCap := cap(b.data)*2 + len(data)
		if newCap < need {
			newCap = need
		}
		grown := make([]byte, len(b.data), newCap)
		copy(grown, b.data)
		b.data = grown
	}
	if need > len(b.data) {
		b.data = b.data[:need]
	}
	copy(b.data[b.offset:need], data)
	b.offset = need
	return len(data), nil
}

// Truncate shortens the buffer to newLen bytes. A newLen of 0 truncates to
// the current cursor position, matching the source's "Truncate(0)　means
// truncate to offset" convention.
func (b *ByteBuffer) Truncate(newLen int) error {
	if newLen == 0 {
		newLen = b.offset
	}
	if b.isStore() {
		if err := b.backend.Truncate(b.key, newLen); err != nil {
			return fmt.Errorf("buffer: truncate %q: %w", b.key, err)
		}
		b.cached = nil
		return nil
	}
	if newLen > len(b.data) {
		return fmt.Errorf("buffer: truncate %d exceeds length %d", newLen, len(b.data))
	}
	b.data = b.data[:newLen]
	return nil
}

// Release frees the buffer's backing allocation if it was opened freeable
// and memory-backed; store-backed buffers are released without freeing
// the underlying blob.
func (b *ByteBuffer) Release() {
	if b.isStore() {
		b.cached = nil
		return
	}
	if b.mode&ModeFreeable != 0 {
		b.data = nil
	}
}

// Bytes returns the buffer's full backing content, for callers (like the
// writer) that need to hand the whole blob to the backing store at once.
func (b *ByteBuffer) Bytes() ([]byte, error) {
	if err := b.load(); err != nil {
		return nil, err
	}
	return b.bytes(), nil
}
