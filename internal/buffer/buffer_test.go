package buffer

import (
	"bytes"
	"errors"
	"testing"
)

func TestAppendAndRetrieve(t *testing.T) {
	b := New()
	b.Append([]byte("hello"))
	if got := b.ReadableBytes(); got != 5 {
		t.Fatalf("ReadableBytes() = %d, want 5", got)
	}
	if got := string(b.Peek()); got != "hello" {
		t.Fatalf("Peek() = %q, want %q", got, "hello")
	}
	b.Retrieve(5)
	if got := b.ReadableBytes(); got != 0 {
		t.Fatalf("ReadableBytes() after full retrieve = %d, want 0", got)
	}
}

func TestRetrieveSnapsBackToPrepend(t *testing.T) {
	b := New()
	b.Append([]byte("abc"))
	b.Retrieve(3)
	if b.r != prependSize || b.w != prependSize {
		t.Fatalf("r=%d w=%d, want both %d after full drain", b.r, b.w, prependSize)
	}
}

func TestAppendTriggersShiftThenGrow(t *testing.T) {
	b := New()
	// Consume a large prefix so there is reclaimable prepend space, then
	// append something that fits only via a shift.
	b.Append(bytes.Repeat([]byte("x"), initialSize-prependSize-10))
	b.Retrieve(initialSize - prependSize - 10 - 5) // leave 5 readable bytes
	before := len(b.buf)
	b.Append(bytes.Repeat([]byte("y"), 20)) // fits via shift, no growth
	if len(b.buf) != before {
		t.Fatalf("capacity grew on an append that should have shifted: %d -> %d", before, len(b.buf))
	}

	// Now force growth: append far more than the capacity can hold even
	// after a shift.
	b2 := New()
	huge := bytes.Repeat([]byte("z"), initialSize*4)
	b2.Append(huge)
	if b2.ReadableBytes() != len(huge) {
		t.Fatalf("ReadableBytes() = %d, want %d after grow-path append", b2.ReadableBytes(), len(huge))
	}
	if !bytes.Equal(b2.Peek(), huge) {
		t.Fatal("data corrupted across the grow path")
	}
}

func TestFindCRLF(t *testing.T) {
	b := New()
	b.Append([]byte("PING"))
	if idx := b.FindCRLF(); idx != -1 {
		t.Fatalf("FindCRLF() = %d before CRLF arrives, want -1", idx)
	}
	b.Append([]byte("\r\nmore"))
	idx := b.FindCRLF()
	if idx != 4 {
		t.Fatalf("FindCRLF() = %d, want 4", idx)
	}
}

func TestRetrieveAsString(t *testing.T) {
	b := New()
	b.Append([]byte("hello world"))
	got := b.RetrieveAsString(5)
	if string(got) != "hello" {
		t.Fatalf("RetrieveAsString(5) = %q, want %q", got, "hello")
	}
	if string(b.Peek()) != " world" {
		t.Fatalf("remaining Peek() = %q, want %q", b.Peek(), " world")
	}
}

type fakeReader struct {
	chunks [][]byte
	i      int
	err    error
}

func (f *fakeReader) Read(p []byte) (int, error) {
	if f.i >= len(f.chunks) {
		if f.err != nil {
			return 0, f.err
		}
		return 0, errors.New("no more chunks")
	}
	n := copy(p, f.chunks[f.i])
	f.i++
	return n, nil
}

func TestReadFDIngestsBurstWithoutEarlyGrowth(t *testing.T) {
	b := New()
	burst := bytes.Repeat([]byte("a"), 40000)
	r := &fakeReader{chunks: [][]byte{burst}}

	before := len(b.buf)
	n, err := b.ReadFD(r)
	if err != nil {
		t.Fatalf("ReadFD error: %v", err)
	}
	if n != len(burst) {
		t.Fatalf("ReadFD() n = %d, want %d", n, len(burst))
	}
	if !bytes.Equal(b.Peek(), burst) {
		t.Fatal("ReadFD corrupted the ingested burst")
	}
	_ = before
}

func TestReadFDPropagatesError(t *testing.T) {
	b := New()
	r := &fakeReader{err: errors.New("boom")}
	n, err := b.ReadFD(r)
	if err == nil || n != -1 {
		t.Fatalf("ReadFD() = (%d, %v), want (-1, err)", n, err)
	}
}
