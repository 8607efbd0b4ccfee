package pak

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// Helper to create a temporary archive stream; t.TempDir() handles cleanup.
func createTempStream(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "test.pak"))
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

// streamBytes returns everything written to f so far.
func streamBytes(t *testing.T, f *os.File) []byte {
	t.Helper()
	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("Failed to read back %s: %v", f.Name(), err)
	}
	return data
}

// parsedArchive is the test-side view of an archive.
type parsedArchive struct {
	data       []byte
	Footer     Footer
	MountPoint string
	Records    []IndexRecord
}

func readString(t *testing.T, r *bytes.Reader) string {
	t.Helper()
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		t.Fatalf("failed to read string length: %v", err)
	}
	if n == 0 || n > 4096 {
		t.Fatalf("invalid string length %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		t.Fatalf("failed to read string: %v", err)
	}
	if b[n-1] != 0 {
		t.Fatalf("string %q is not null-terminated", b)
	}
	return string(b[:n-1])
}

func readEntry(t *testing.T, r *bytes.Reader) *Entry {
	t.Helper()
	// The fixed part of an index entry has the record header layout.
	var fixed RecordHeader
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		t.Fatalf("failed to read entry: %v", err)
	}
	e := &Entry{
		Offset:           fixed.Offset,
		Size:             fixed.Size,
		UncompressedSize: fixed.UncompressedSize,
		Method:           CompressionMethod(fixed.Method),
		Hash:             fixed.Hash,
	}
	if e.IsCompressed() {
		var count uint32
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			t.Fatalf("failed to read block count: %v", err)
		}
		e.Blocks = make([]Block, count)
		if err := binary.Read(r, binary.LittleEndian, e.Blocks); err != nil {
			t.Fatalf("failed to read blocks: %v", err)
		}
	}
	var flag uint8
	if err := binary.Read(r, binary.LittleEndian, &flag); err != nil {
		t.Fatalf("failed to read encrypted flag: %v", err)
	}
	if flag != 0 {
		t.Errorf("Expected encrypted flag 0, got %d", flag)
	}
	if err := binary.Read(r, binary.LittleEndian, &e.BlockSize); err != nil {
		t.Fatalf("failed to read block size: %v", err)
	}
	return e
}

// parseArchive reads the footer and index of a complete archive.
func parseArchive(t *testing.T, data []byte) *parsedArchive {
	t.Helper()
	if len(data) < FooterSize {
		t.Fatalf("archive is %d bytes, shorter than the footer", len(data))
	}
	a := &parsedArchive{data: data}
	if err := binary.Read(bytes.NewReader(data[len(data)-FooterSize:]), binary.LittleEndian, &a.Footer); err != nil {
		t.Fatalf("failed to parse footer: %v", err)
	}
	end := a.Footer.IndexOffset + a.Footer.IndexSize
	if a.Footer.IndexOffset < 0 || end != int64(len(data)-FooterSize) {
		t.Fatalf("index [%d, %d) does not end at the footer (%d)", a.Footer.IndexOffset, end, len(data)-FooterSize)
	}
	index := data[a.Footer.IndexOffset:end]
	if got := sha1.Sum(index); got != a.Footer.IndexHash {
		t.Errorf("index hash mismatch: footer %x, computed %x", a.Footer.IndexHash, got)
	}

	r := bytes.NewReader(index)
	a.MountPoint = readString(t, r)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		t.Fatalf("failed to read record count: %v", err)
	}
	for i := uint32(0); i < count; i++ {
		path := readString(t, r)
		a.Records = append(a.Records, IndexRecord{Path: path, Entry: readEntry(t, r)})
	}
	if r.Len() != 0 {
		t.Errorf("%d unread bytes at the end of the index", r.Len())
	}
	return a
}

// recordHeader reads the per-record header of e.
func (a *parsedArchive) recordHeader(t *testing.T, e *Entry) RecordHeader {
	t.Helper()
	var h RecordHeader
	if err := binary.Read(bytes.NewReader(a.data[e.Offset:e.Offset+RecordHeaderSize]), binary.LittleEndian, &h); err != nil {
		t.Fatalf("failed to read record header at %d: %v", e.Offset, err)
	}
	return h
}

// storedBytes returns the bytes the entry hash covers.
func (a *parsedArchive) storedBytes(t *testing.T, e *Entry) []byte {
	t.Helper()
	if !e.IsCompressed() {
		start := e.Offset + RecordHeaderSize + ChunkInfoSize
		return a.data[start : start+e.Size]
	}
	var out []byte
	for _, b := range e.Blocks {
		out = append(out, a.data[b.Start:b.End]...)
	}
	return out
}

// contents returns the uncompressed data of e.
func (a *parsedArchive) contents(t *testing.T, e *Entry) []byte {
	t.Helper()
	if !e.IsCompressed() {
		return a.storedBytes(t, e)
	}
	var out []byte
	for i, b := range e.Blocks {
		zr, err := zlib.NewReader(bytes.NewReader(a.data[b.Start:b.End]))
		if err != nil {
			t.Fatalf("block %d: failed to open zlib stream: %v", i, err)
		}
		chunk, err := io.ReadAll(zr)
		if err != nil {
			t.Fatalf("block %d: failed to decompress: %v", i, err)
		}
		if i < len(e.Blocks)-1 && len(chunk) != int(e.BlockSize) {
			t.Errorf("block %d: expected %d bytes, got %d", i, e.BlockSize, len(chunk))
		}
		out = append(out, chunk...)
	}
	return out
}
