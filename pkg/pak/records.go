package pak

import "crypto/sha1"

// Footer constants for a version 3 archive.
const (
	Magic   uint32 = 0x5A6F12E1
	Version uint32 = 3
)

// MountPoint is the base path written at the start of the index.
const MountPoint = `..\..\..\`

// BlockSize is the uncompressed size of every compression block (64KB).
const BlockSize = 65536

// HashSize is the size of every content hash (SHA-1).
const HashSize = sha1.Size

// CompressionMethod mirrors the engine's ECompressionFlags for pak v3.
type CompressionMethod uint32

const (
	CompressionNone CompressionMethod = 0
	CompressionZlib CompressionMethod = 1
)

// RecordHeader is the fixed part written in front of every record's data (48 bytes).
// The per-record copy always stores a zero Offset.
type RecordHeader struct {
	Offset           int64
	Size             int64 // compressed size, patched after the data is written
	UncompressedSize int64
	Method           uint32
	Hash             [HashSize]byte // patched after the data is written
}

const RecordHeaderSize = 48

// Byte positions inside RecordHeader of the fields patched after the data is written.
const (
	recordSizeOffset = 8
	recordHashOffset = 28
)

// ChunkInfoSize is the flag byte (encrypted) plus the uint32 block size
// that ends every entry and precedes uncompressed record data.
const ChunkInfoSize = 5

// Block is the absolute byte range one compressed block occupies in the archive.
type Block struct {
	Start int64
	End   int64
}

// Entry describes one record. It is written in compact form in front of
// the record data and in full form in the trailing index.
type Entry struct {
	Offset           int64 // absolute offset of the record header
	Size             int64 // bytes of stored data (sum of compressed blocks, or raw length)
	UncompressedSize int64
	Method           CompressionMethod
	Hash             [HashSize]byte // over stored data
	Blocks           []Block        // only when Method != CompressionNone
	BlockSize        uint32         // 0 when uncompressed
}

// IsCompressed reports whether the entry's data is stored in compression blocks.
func (e *Entry) IsCompressed() bool { return e.Method != CompressionNone }

// IndexRecord pairs a virtual path with the entry it names.
type IndexRecord struct {
	Path  string
	Entry *Entry
}

// Footer trails the index (44 bytes).
type Footer struct {
	Magic       uint32
	Version     uint32
	IndexOffset int64
	IndexSize   int64
	IndexHash   [HashSize]byte
}

const FooterSize = 44
