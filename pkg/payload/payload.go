package payload

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// DDS constants used to locate BC7 data.
const (
	ddsMagic         = 0x20534444 // "DDS "
	ddsHeaderSize    = 124
	dx10HeaderSize   = 20
	dxgiFormatBC7    = 98
	dxgiFormatBC7SRG = 99
)

// ddsHeader is the 128-byte DDS file header including the magic.
type ddsHeader struct {
	Magic             uint32
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       struct {
		Size        uint32
		Flags       uint32
		FourCC      [4]byte
		RGBBitCount uint32
		RBitMask    uint32
		GBitMask    uint32
		BBitMask    uint32
		ABitMask    uint32
	}
	Caps      uint32
	Caps2     uint32
	Caps3     uint32
	Caps4     uint32
	Reserved2 uint32
}

type dx10Header struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

// ReadFile loads a BC7 payload. Files ending in .lz4 (LZ4 frame) or .zst
// (zstd) are decompressed first. A DDS container is reduced to the top
// mip level of its BC7 data; anything else is returned as it is.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open payload %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".lz4":
		r = lz4.NewReader(f)
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd payload %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload %s: %w", path, err)
	}
	if IsDDS(data) {
		data, err = FromDDS(data)
		if err != nil {
			return nil, fmt.Errorf("payload %s: %w", path, err)
		}
	}
	return data, nil
}

// IsDDS reports whether data starts with the DDS magic.
func IsDDS(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == ddsMagic
}

// FromDDS returns the top mip level of a DX10 BC7 DDS file.
func FromDDS(data []byte) ([]byte, error) {
	r := bytes.NewReader(data)
	var h ddsHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to parse DDS header: %w", err)
	}
	if h.Magic != ddsMagic || h.Size != ddsHeaderSize {
		return nil, fmt.Errorf("invalid DDS header (magic %#x, size %d)", h.Magic, h.Size)
	}
	if string(h.PixelFormat.FourCC[:]) != "DX10" {
		return nil, fmt.Errorf("unsupported DDS format %q, want DX10 BC7", h.PixelFormat.FourCC[:])
	}
	var dx10 dx10Header
	if err := binary.Read(r, binary.LittleEndian, &dx10); err != nil {
		return nil, fmt.Errorf("failed to parse DDS DX10 header: %w", err)
	}
	if dx10.DXGIFormat != dxgiFormatBC7 && dx10.DXGIFormat != dxgiFormatBC7SRG {
		return nil, fmt.Errorf("unsupported DXGI format %d, want BC7", dx10.DXGIFormat)
	}

	blocksWide := max(1, (int(h.Width)+3)/4)
	blocksHigh := max(1, (int(h.Height)+3)/4)
	levelSize := blocksWide * blocksHigh * 16

	body := data[4+ddsHeaderSize+dx10HeaderSize:]
	if len(body) < levelSize {
		return nil, fmt.Errorf("DDS data is %d bytes, top level needs %d", len(body), levelSize)
	}
	return body[:levelSize], nil
}
