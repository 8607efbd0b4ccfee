package pak

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// Compressor writes records, compressing their data in independent
// zlib blocks of BlockSize bytes.
type Compressor struct {
	Level   int // zlib level, -1 for the library default
	Workers int // goroutines compressing blocks; <= 1 compresses inline
}

// NewCompressor returns a Compressor after checking that level is a valid zlib level.
func NewCompressor(level, workers int) (*Compressor, error) {
	if _, err := zlib.NewWriterLevel(io.Discard, level); err != nil {
		return nil, fmt.Errorf("invalid zlib compression level %d: %w", level, err)
	}
	if workers < 0 {
		return nil, fmt.Errorf("invalid worker count %d", workers)
	}
	return &Compressor{Level: level, Workers: workers}, nil
}

// DefaultCompressor compresses inline at the zlib default level.
var DefaultCompressor = &Compressor{Level: zlib.DefaultCompression, Workers: 1}

// ChunkResult is what CompressChunked learned while writing the blocks.
type ChunkResult struct {
	Size   int64 // sum of compressed block lengths
	Hash   [HashSize]byte
	Blocks []Block
}

// CompressChunked writes data at the current position of w as
//
//	uint32 block count
//	block count * (uint64 start, uint64 end)
//	uint8 encrypted flag, uint32 block size
//	compressed blocks
//
// The block table is reserved first and filled in once every block has
// been written, because compressed lengths are unknown until then. On
// return w is positioned after the last compressed block.
func (c *Compressor) CompressChunked(w io.WriteSeeker, data []byte) (*ChunkResult, error) {
	blockCount := (len(data) + BlockSize - 1) / BlockSize

	base, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to get block table position: %w", err)
	}
	tableOffset := base + 4
	table := make([]byte, blockCount*16)

	var head [4]byte
	binary.LittleEndian.PutUint32(head[:], uint32(blockCount))
	if _, err := w.Write(head[:]); err != nil {
		return nil, fmt.Errorf("failed to write block count: %w", err)
	}
	if _, err := w.Write(table); err != nil {
		return nil, fmt.Errorf("failed to reserve block table (%d blocks): %w", blockCount, err)
	}
	if _, err := w.Write(chunkInfo(BlockSize)); err != nil {
		return nil, fmt.Errorf("failed to write block size record: %w", err)
	}

	var precompressed [][]byte
	if c.Workers > 1 && blockCount > 1 {
		precompressed, err = c.compressParallel(data, blockCount)
		if err != nil {
			return nil, err
		}
	}
	var enc *blockEncoder
	if precompressed == nil {
		if enc, err = newBlockEncoder(c.Level); err != nil {
			return nil, err
		}
	}

	result := &ChunkResult{Blocks: make([]Block, blockCount)}
	hasher := sha1.New()
	cur := tableOffset + int64(len(table)) + ChunkInfoSize

	for i := 0; i < blockCount; i++ {
		var compressed []byte
		if precompressed != nil {
			compressed = precompressed[i]
		} else if compressed, err = enc.encode(blockAt(data, i)); err != nil {
			return nil, fmt.Errorf("failed to compress block %d: %w", i, err)
		}

		result.Blocks[i] = Block{Start: cur, End: cur + int64(len(compressed))}
		cur += int64(len(compressed))
		result.Size += int64(len(compressed))

		hasher.Write(compressed)
		if _, err := w.Write(compressed); err != nil {
			return nil, fmt.Errorf("failed to write block %d: %w", i, err)
		}
	}
	copy(result.Hash[:], hasher.Sum(nil))

	for i, b := range result.Blocks {
		binary.LittleEndian.PutUint64(table[i*16:], uint64(b.Start))
		binary.LittleEndian.PutUint64(table[i*16+8:], uint64(b.End))
	}
	if err := patch(w, tableOffset, table); err != nil {
		return nil, fmt.Errorf("failed to write block table: %w", err)
	}
	return result, nil
}

// compressParallel compresses every block on up to c.Workers goroutines.
// The returned slice is in block order.
func (c *Compressor) compressParallel(data []byte, blockCount int) ([][]byte, error) {
	out := make([][]byte, blockCount)
	errs := make([]error, blockCount)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w, n := 0, min(c.Workers, blockCount); w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			enc, err := newBlockEncoder(c.Level)
			for i := range jobs {
				if err != nil {
					errs[i] = err
					continue
				}
				compressed, encErr := enc.encode(blockAt(data, i))
				if encErr != nil {
					errs[i] = encErr
					continue
				}
				out[i] = bytes.Clone(compressed)
			}
		}()
	}
	for i := 0; i < blockCount; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("failed to compress block %d: %w", i, err)
		}
	}
	return out, nil
}

// blockEncoder reuses one zlib writer and output buffer across blocks.
type blockEncoder struct {
	buf bytes.Buffer
	zw  *zlib.Writer
}

func newBlockEncoder(level int) (*blockEncoder, error) {
	e := &blockEncoder{}
	zw, err := zlib.NewWriterLevel(&e.buf, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib writer: %w", err)
	}
	e.zw = zw
	return e, nil
}

// encode returns a zlib stream for block. The slice is only valid until the next call.
func (e *blockEncoder) encode(block []byte) ([]byte, error) {
	e.buf.Reset()
	e.zw.Reset(&e.buf)
	if _, err := e.zw.Write(block); err != nil {
		return nil, err
	}
	if err := e.zw.Close(); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

func blockAt(data []byte, i int) []byte {
	end := min((i+1)*BlockSize, len(data))
	return data[i*BlockSize : end]
}

// chunkInfo encodes the trailing flag byte and block size of an entry.
func chunkInfo(blockSize uint32) []byte {
	b := make([]byte, ChunkInfoSize)
	b[0] = 0 // not encrypted
	binary.LittleEndian.PutUint32(b[1:], blockSize)
	return b
}
