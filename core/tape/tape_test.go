package tape

import (
	"bytes"
	"testing"

	"github.com/vegarringdal/web-ifc/core/errors"
)

func TestPushAndReadPrimitives(t *testing.T) {
	tp := New()
	tp.PushByte(0x7f)
	tp.PushUint32(123456)
	tp.PushFloat64(3.25)

	if got := tp.GetTotalSize(); got != 13 {
		t.Fatalf("GetTotalSize() = %d, want 13", got)
	}

	b, err := tp.ReadByte()
	if err != nil {
		t.Fatalf("ReadByte failed: %v", err)
	}
	if b != 0x7f {
		t.Errorf("ReadByte = %#x, want 0x7f", b)
	}

	u, err := tp.ReadUint32()
	if err != nil {
		t.Fatalf("ReadUint32 failed: %v", err)
	}
	if u != 123456 {
		t.Errorf("ReadUint32 = %d, want 123456", u)
	}

	f, err := tp.ReadFloat64()
	if err != nil {
		t.Fatalf("ReadFloat64 failed: %v", err)
	}
	if f != 3.25 {
		t.Errorf("ReadFloat64 = %v, want 3.25", f)
	}

	if !tp.AtEnd() {
		t.Error("cursor should be at end after consuming all bytes")
	}
}

func TestMoveToOutOfRange(t *testing.T) {
	tp := New()
	tp.Push([]byte{1, 2, 3})

	if err := tp.MoveTo(3); err != nil {
		t.Errorf("MoveTo(total) should succeed, got %v", err)
	}
	if !tp.AtEnd() {
		t.Error("AtEnd should be true at offset == total")
	}

	err := tp.MoveTo(4)
	if err == nil {
		t.Fatal("MoveTo past end should fail")
	}
	if !errors.Is(err, errors.ErrOutOfRange) {
		t.Errorf("MoveTo error = %v, want ErrOutOfRange", err)
	}
}

func TestReadPastEnd(t *testing.T) {
	tp := New()
	tp.Push([]byte{1, 2})

	if _, err := tp.ReadUint32(); !errors.Is(err, errors.ErrOutOfRange) {
		t.Errorf("ReadUint32 on 2-byte tape = %v, want ErrOutOfRange", err)
	}
}

func TestReadStringView(t *testing.T) {
	tp := New()
	tp.PushByte(5)
	tp.Push([]byte("METRE"))

	view, err := tp.ReadStringView()
	if err != nil {
		t.Fatalf("ReadStringView failed: %v", err)
	}
	if string(view) != "METRE" {
		t.Errorf("ReadStringView = %q, want METRE", view)
	}
	if !tp.AtEnd() {
		t.Error("cursor should sit past the payload")
	}
}

func TestReadStringViewEmpty(t *testing.T) {
	tp := New()
	tp.PushByte(0)

	view, err := tp.ReadStringView()
	if err != nil {
		t.Fatalf("ReadStringView failed: %v", err)
	}
	if len(view) != 0 {
		t.Errorf("ReadStringView = %q, want empty", view)
	}
}

func TestTagReverse(t *testing.T) {
	tp := New()
	tp.PushByte(7)    // tag
	tp.PushUint32(42) // payload
	tp.PushByte(9)    // next tag

	tag, err := tp.ReadTag()
	if err != nil || tag != 7 {
		t.Fatalf("ReadTag = %d, %v; want 7, nil", tag, err)
	}
	if _, err := tp.ReadUint32(); err != nil {
		t.Fatalf("payload read failed: %v", err)
	}

	// Reverse undoes the tag and the payload read.
	tp.Reverse()
	if got := tp.GetReadOffset(); got != 0 {
		t.Errorf("offset after Reverse = %d, want 0", got)
	}

	// Reading forward again yields the same token.
	tag, _ = tp.ReadTag()
	if tag != 7 {
		t.Errorf("re-read tag = %d, want 7", tag)
	}
}

func TestCopy(t *testing.T) {
	tp := New()
	tp.Push([]byte("hello world"))

	dest := make([]byte, 5)
	n, err := tp.Copy(6, 11, dest)
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if n != 5 || string(dest) != "world" {
		t.Errorf("Copy = %d %q, want 5 \"world\"", n, dest)
	}

	// Copy must not move the cursor.
	if tp.GetReadOffset() != 0 {
		t.Error("Copy moved the read cursor")
	}

	if _, err := tp.Copy(0, 100, make([]byte, 100)); !errors.Is(err, errors.ErrOutOfRange) {
		t.Errorf("Copy past end = %v, want ErrOutOfRange", err)
	}
}

func TestBytes(t *testing.T) {
	tp := New()
	tp.Push([]byte("abcdef"))

	got, err := tp.Bytes(2, 5)
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if string(got) != "cde" {
		t.Errorf("Bytes = %q, want cde", got)
	}
}

func TestChunkBoundary(t *testing.T) {
	tp := New()

	// Fill most of the first page, then push a payload that straddles the
	// boundary.
	filler := make([]byte, ChunkSize-3)
	tp.Push(filler)
	tp.Push([]byte("boundary"))

	if got := tp.GetTotalSize(); got != uint64(ChunkSize+5) {
		t.Fatalf("GetTotalSize() = %d, want %d", got, ChunkSize+5)
	}

	if err := tp.MoveTo(uint64(ChunkSize - 3)); err != nil {
		t.Fatalf("MoveTo failed: %v", err)
	}
	buf := make([]byte, 8)
	if _, err := tp.Copy(uint64(ChunkSize-3), uint64(ChunkSize+5), buf); err != nil {
		t.Fatalf("Copy across boundary failed: %v", err)
	}
	if !bytes.Equal(buf, []byte("boundary")) {
		t.Errorf("Copy across boundary = %q, want boundary", buf)
	}

	// Sequential reads across the boundary.
	for i, want := range []byte("boundary") {
		b, err := tp.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d failed: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d = %c, want %c", i, b, want)
		}
	}
}

func TestStringViewAcrossChunkBoundary(t *testing.T) {
	tp := New()
	filler := make([]byte, ChunkSize-4)
	tp.Push(filler)
	tp.PushByte(6)
	tp.Push([]byte("METRES"))

	if err := tp.MoveTo(uint64(ChunkSize - 4)); err != nil {
		t.Fatalf("MoveTo failed: %v", err)
	}
	view, err := tp.ReadStringView()
	if err != nil {
		t.Fatalf("ReadStringView failed: %v", err)
	}
	if string(view) != "METRES" {
		t.Errorf("ReadStringView across boundary = %q, want METRES", view)
	}
}

func BenchmarkPush(b *testing.B) {
	data := make([]byte, 64)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		tp := New()
		for j := 0; j < 1024; j++ {
			tp.Push(data)
		}
	}
}

func BenchmarkReadUint32(b *testing.B) {
	tp := New()
	for i := 0; i < 4096; i++ {
		tp.PushUint32(uint32(i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := tp.MoveTo(0); err != nil {
			b.Fatal(err)
		}
		for !tp.AtEnd() {
			if _, err := tp.ReadUint32(); err != nil {
				b.Fatal(err)
			}
		}
	}
}
