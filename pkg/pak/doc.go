// Package pak writes version 3 .pak archives.
//
// An archive is a sequence of records followed by an index and a footer:
//
//	record:  RecordHeader (48 bytes)
//	         compressed:   uint32 block count, block table, uint8 flag, uint32 block size, zlib blocks
//	         uncompressed: uint8 flag, uint32 0, raw data
//	index:   mount point string, uint32 count, (path string, entry)...
//	footer:  uint32 magic, uint32 version, int64 index offset, int64 index size, SHA-1 of index
//
// Strings are a uint32 length (including the terminator) followed by
// UTF-8 bytes and a NUL. All integers are little-endian. Block offsets
// are absolute positions in the archive.
package pak
