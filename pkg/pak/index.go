package pak

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"
	"sort"
)

// ErrIndexOrder is returned by WriteIndex when records are not sorted by path.
var ErrIndexOrder = errors.New("index records are not sorted by path")

// AppendString appends s as a length-prefixed, null-terminated string.
// The length counts the terminator.
func AppendString(b []byte, s string) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(s)+1))
	b = append(b, s...)
	return append(b, 0)
}

// AppendBinary appends the index encoding of e.
func (e *Entry) AppendBinary(b []byte) []byte {
	b = binary.LittleEndian.AppendUint64(b, uint64(e.Offset))
	b = binary.LittleEndian.AppendUint64(b, uint64(e.Size))
	b = binary.LittleEndian.AppendUint64(b, uint64(e.UncompressedSize))
	b = binary.LittleEndian.AppendUint32(b, uint32(e.Method))
	b = append(b, e.Hash[:]...)
	if e.IsCompressed() {
		b = binary.LittleEndian.AppendUint32(b, uint32(len(e.Blocks)))
		for _, blk := range e.Blocks {
			b = binary.LittleEndian.AppendUint64(b, uint64(blk.Start))
			b = binary.LittleEndian.AppendUint64(b, uint64(blk.End))
		}
	}
	return append(b, chunkInfo(e.BlockSize)...)
}

// hashingWriter counts and hashes everything written through it.
type hashingWriter struct {
	w    io.Writer
	h    hash.Hash
	size int64
}

func (hw *hashingWriter) Write(p []byte) (int, error) {
	n, err := hw.w.Write(p)
	hw.h.Write(p[:n])
	hw.size += int64(n)
	return n, err
}

// WriteIndex writes the index for records at the current position of w,
// followed by the footer. Records must already be sorted by path.
func WriteIndex(w io.WriteSeeker, records []IndexRecord) (*Footer, error) {
	for i := 1; i < len(records); i++ {
		if records[i].Path < records[i-1].Path {
			return nil, fmt.Errorf("%w: %q after %q", ErrIndexOrder, records[i].Path, records[i-1].Path)
		}
	}

	indexOffset, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to get index position: %w", err)
	}

	hw := &hashingWriter{w: w, h: sha1.New()}
	head := AppendString(nil, MountPoint)
	head = binary.LittleEndian.AppendUint32(head, uint32(len(records)))
	if _, err := hw.Write(head); err != nil {
		return nil, fmt.Errorf("failed to write index header: %w", err)
	}

	var buf []byte
	for _, rec := range records {
		if rec.Entry == nil {
			return nil, fmt.Errorf("index record %q has no entry", rec.Path)
		}
		buf = rec.Entry.AppendBinary(AppendString(buf[:0], rec.Path))
		if _, err := hw.Write(buf); err != nil {
			return nil, fmt.Errorf("failed to write index entry %q: %w", rec.Path, err)
		}
	}

	footer := &Footer{
		Magic:       Magic,
		Version:     Version,
		IndexOffset: indexOffset,
		IndexSize:   hw.size,
	}
	copy(footer.IndexHash[:], hw.h.Sum(nil))

	footerBytes := new(bytes.Buffer)
	if err := binary.Write(footerBytes, binary.LittleEndian, footer); err != nil {
		return nil, fmt.Errorf("failed to serialize footer: %w", err)
	}
	if _, err := w.Write(footerBytes.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write footer: %w", err)
	}
	return footer, nil
}

// Writer writes records to an archive stream and finishes it with an index.
type Writer struct {
	w          io.WriteSeeker
	compressor *Compressor
	records    []IndexRecord
}

// NewWriter returns a Writer for w. A nil compressor means DefaultCompressor.
func NewWriter(w io.WriteSeeker, compressor *Compressor) *Writer {
	if compressor == nil {
		compressor = DefaultCompressor
	}
	return &Writer{w: w, compressor: compressor}
}

// Add writes one record and remembers it for the index.
func (pw *Writer) Add(path string, data []byte, compress bool) (*Entry, error) {
	entry, err := pw.compressor.WriteRecord(pw.w, data, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to write record %q: %w", path, err)
	}
	pw.records = append(pw.records, IndexRecord{Path: path, Entry: entry})
	return entry, nil
}

// Records returns the records added so far, in write order. Close does
// not reorder them.
func (pw *Writer) Records() []IndexRecord { return pw.records }

// Close sorts the collected records by path and writes the index and footer.
// It does not close the underlying stream.
func (pw *Writer) Close() (*Footer, error) {
	sorted := make([]IndexRecord, len(pw.records))
	copy(sorted, pw.records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	return WriteIndex(pw.w, sorted)
}
