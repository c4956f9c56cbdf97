// Package tape implements the append-only chunked byte buffer backing a
// parsed IFC model. Tokens are appended once during tokenizing and never
// moved afterwards, so byte offsets handed out to callers stay valid for
// the life of the tape.
package tape

import (
	"encoding/binary"
	"math"

	"github.com/vegarringdal/web-ifc/core/errors"
)

// ChunkSize is the size of one tape page. Growth allocates another page
// lazily on append; existing pages never move.
const ChunkSize = 1 << 24 // 16 MiB

// Tape is a virtually contiguous byte sequence with a single read cursor.
// The addressable space is [0, TotalSize()) regardless of how many pages
// back it physically.
//
// The cursor is shared mutable state: callers must not interleave reads on
// the same tape from different goroutines.
type Tape struct {
	chunks [][]byte
	total  uint64
	read   uint64
	mark   uint64 // cursor position before the most recent ReadTag
}

// New creates an empty tape.
func New() *Tape {
	return &Tape{}
}

// Push appends raw bytes to the end of the tape.
func (t *Tape) Push(data []byte) {
	for len(data) > 0 {
		if len(t.chunks) == 0 || len(t.chunks[len(t.chunks)-1]) == ChunkSize {
			t.chunks = append(t.chunks, make([]byte, 0, ChunkSize))
		}
		last := len(t.chunks) - 1
		room := ChunkSize - len(t.chunks[last])
		n := len(data)
		if n > room {
			n = room
		}
		t.chunks[last] = append(t.chunks[last], data[:n]...)
		data = data[n:]
		t.total += uint64(n)
	}
}

// PushByte appends a single byte.
func (t *Tape) PushByte(b byte) {
	t.Push([]byte{b})
}

// PushUint32 appends a little-endian uint32.
func (t *Tape) PushUint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	t.Push(buf[:])
}

// PushFloat64 appends a little-endian IEEE-754 double.
func (t *Tape) PushFloat64(v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	t.Push(buf[:])
}

// MoveTo sets the read cursor. Seeking to TotalSize() positions the cursor
// at end-of-stream; anything past that is out of range.
func (t *Tape) MoveTo(offset uint64) error {
	if offset > t.total {
		return errors.NewOutOfRange("seek", offset, t.total)
	}
	t.read = offset
	return nil
}

// GetReadOffset returns the current cursor position.
func (t *Tape) GetReadOffset() uint64 {
	return t.read
}

// AtEnd reports whether the cursor sits at end-of-stream.
func (t *Tape) AtEnd() bool {
	return t.read == t.total
}

// GetTotalSize returns the number of bytes on the tape.
func (t *Tape) GetTotalSize() uint64 {
	return t.total
}

// AdvanceRead skips n bytes.
func (t *Tape) AdvanceRead(n uint64) error {
	if t.read+n > t.total {
		return errors.NewOutOfRange("advance", t.read+n, t.total)
	}
	t.read += n
	return nil
}

// ReadByte consumes one byte at the cursor.
func (t *Tape) ReadByte() (byte, error) {
	if t.read >= t.total {
		return 0, errors.NewOutOfRange("read", t.read, t.total)
	}
	b := t.chunks[t.read/ChunkSize][t.read%ChunkSize]
	t.read++
	return b, nil
}

// ReadTag consumes one byte at the cursor and remembers the pre-read
// position so that Reverse can undo the whole token. Token tag bytes must
// be read through ReadTag, payload bytes through the other readers.
func (t *Tape) ReadTag() (byte, error) {
	t.mark = t.read
	return t.ReadByte()
}

// Reverse restores the cursor to the position before the most recent
// ReadTag, undoing that token's tag and any payload reads made since.
// Only the most recent token read is undoable.
func (t *Tape) Reverse() {
	t.read = t.mark
}

// ReadUint32 consumes a little-endian uint32.
func (t *Tape) ReadUint32() (uint32, error) {
	var buf [4]byte
	if err := t.readInto(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadInt32 consumes a little-endian int32.
func (t *Tape) ReadInt32() (int32, error) {
	v, err := t.ReadUint32()
	return int32(v), err
}

// ReadFloat64 consumes a little-endian IEEE-754 double.
func (t *Tape) ReadFloat64() (float64, error) {
	var buf [8]byte
	if err := t.readInto(buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

// ReadStringView reads a 1-byte length prefix and returns the following
// bytes, advancing the cursor past them. When the payload lies within one
// page the returned slice aliases tape memory and must not be modified;
// a payload straddling a page boundary is returned as a copy.
func (t *Tape) ReadStringView() ([]byte, error) {
	length, err := t.ReadByte()
	if err != nil {
		return nil, err
	}
	n := uint64(length)
	if t.read+n > t.total {
		return nil, errors.NewOutOfRange("read string", t.read+n, t.total)
	}
	chunk := t.read / ChunkSize
	off := t.read % ChunkSize
	if off+n <= uint64(len(t.chunks[chunk])) {
		view := t.chunks[chunk][off : off+n]
		t.read += n
		return view, nil
	}
	copyBuf := make([]byte, n)
	if err := t.readInto(copyBuf); err != nil {
		return nil, err
	}
	return copyBuf, nil
}

// Copy copies the bytes in [start, end) into dest and returns the number
// of bytes copied. The cursor is not moved.
func (t *Tape) Copy(start, end uint64, dest []byte) (uint32, error) {
	if end > t.total || start > end {
		return 0, errors.NewOutOfRange("copy", end, t.total)
	}
	if uint64(len(dest)) < end-start {
		return 0, errors.NewValidation("dest", "destination buffer too small")
	}
	copied := uint32(0)
	for pos := start; pos < end; {
		chunk := pos / ChunkSize
		off := pos % ChunkSize
		avail := uint64(len(t.chunks[chunk])) - off
		n := end - pos
		if n > avail {
			n = avail
		}
		copy(dest[copied:], t.chunks[chunk][off:off+n])
		copied += uint32(n)
		pos += n
	}
	return copied, nil
}

// Bytes materializes [start, end) as a fresh slice.
func (t *Tape) Bytes(start, end uint64) ([]byte, error) {
	buf := make([]byte, end-start)
	if _, err := t.Copy(start, end, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// readInto fills buf from the cursor, crossing page boundaries as needed.
func (t *Tape) readInto(buf []byte) error {
	if t.read+uint64(len(buf)) > t.total {
		return errors.NewOutOfRange("read", t.read+uint64(len(buf)), t.total)
	}
	filled := 0
	for filled < len(buf) {
		chunk := t.read / ChunkSize
		off := t.read % ChunkSize
		n := copy(buf[filled:], t.chunks[chunk][off:])
		filled += n
		t.read += uint64(n)
	}
	return nil
}
