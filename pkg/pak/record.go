package pak

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"io"
)

// WriteRecord writes a record header followed by data at the current
// position of w and returns its entry. Size and hash are written as
// zeros first and patched once the data is on disk. On return w is
// positioned after the record.
func (c *Compressor) WriteRecord(w io.WriteSeeker, data []byte, compress bool) (*Entry, error) {
	offset, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to get record position: %w", err)
	}

	entry := &Entry{
		Offset:           offset,
		UncompressedSize: int64(len(data)),
	}
	if compress {
		entry.Method = CompressionZlib
	}

	header := RecordHeader{
		UncompressedSize: entry.UncompressedSize,
		Method:           uint32(entry.Method),
	}
	headerBytes := new(bytes.Buffer)
	if err := binary.Write(headerBytes, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to serialize record header: %w", err)
	}
	if _, err := w.Write(headerBytes.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write record header at %d: %w", offset, err)
	}

	if compress {
		res, err := c.CompressChunked(w, data)
		if err != nil {
			return nil, err
		}
		entry.Size = res.Size
		entry.Hash = res.Hash
		entry.Blocks = res.Blocks
		entry.BlockSize = BlockSize
	} else {
		if _, err := w.Write(chunkInfo(0)); err != nil {
			return nil, fmt.Errorf("failed to write block size record: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write record data at %d: %w", offset, err)
		}
		entry.Size = int64(len(data))
		entry.Hash = sha1.Sum(data)
	}

	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(entry.Size))
	if err := patch(w, offset+recordSizeOffset, size[:]); err != nil {
		return nil, fmt.Errorf("failed to patch record size at %d: %w", offset, err)
	}
	if err := patch(w, offset+recordHashOffset, entry.Hash[:]); err != nil {
		return nil, fmt.Errorf("failed to patch record hash at %d: %w", offset, err)
	}
	return entry, nil
}

// patch overwrites p at the absolute position off, then returns w to
// the position it had before the call.
func patch(w io.WriteSeeker, off int64, p []byte) error {
	resume, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := w.Seek(off, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.Write(p); err != nil {
		return err
	}
	_, err = w.Seek(resume, io.SeekStart)
	return err
}
