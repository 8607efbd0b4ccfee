package uasset

import (
	"errors"
	"fmt"

	"github.com/user/mappak/pkg/headers"
)

// Dimensions of the supported BC7 world-map texture.
const (
	TextureWidth  = 2048
	TextureHeight = 1776
	// TextureSize is the BC7 payload size: one 16-byte block per 4x4 pixels.
	TextureSize = (TextureWidth / 4) * (TextureHeight / 4) * 16
)

// BackgroundPath is where the world-map background asset is mounted.
const BackgroundPath = `War\Content\Textures\UI\WorldMap\WorldMapBG.uasset`

const texturePathFormat = `War\Content\Textures\UI\HexMaps\Processed\%s.uasset`

// Trailer follows the texture payload in every framed asset.
var Trailer = [28]byte{
	0x00, 0x08, 0x00, 0x00, 0xf0, 0x06, 0x00, 0x00,
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x0f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xc1, 0x83, 0x2a, 0x9e,
}

// ErrInvalidTextureSize is returned for payloads that are not TextureSize bytes.
var ErrInvalidTextureSize = errors.New("invalid texture size")

// Resolver looks up the header template of a texture name.
type Resolver interface {
	Resolve(name string) (headers.Template, error)
}

// Asset is a framed texture ready to be written as a record.
type Asset struct {
	Path string
	Data []byte
}

// TexturePath returns the virtual path of the texture with the given canonical name.
func TexturePath(canonical string) string {
	return fmt.Sprintf(texturePathFormat, canonical)
}

// ValidatePayload checks the payload size.
func ValidatePayload(payload []byte) error {
	if len(payload) != TextureSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidTextureSize, len(payload), TextureSize)
	}
	return nil
}

// Frame wraps payload in the header template of name and the fixed trailer.
func Frame(r Resolver, name string, payload []byte) (Asset, error) {
	tmpl, err := r.Resolve(name)
	if err != nil {
		return Asset{}, err
	}
	if err := ValidatePayload(payload); err != nil {
		return Asset{}, fmt.Errorf("texture %s: %w", tmpl.Name, err)
	}

	data := make([]byte, 0, len(tmpl.Bytes)+len(payload)+len(Trailer))
	data = append(data, tmpl.Bytes...)
	data = append(data, payload...)
	data = append(data, Trailer[:]...)
	return Asset{Path: TexturePath(tmpl.Name), Data: data}, nil
}

// Background returns the prebuilt background asset. Its bytes are already
// a complete asset and are stored as they are.
func Background(data []byte) Asset {
	return Asset{Path: BackgroundPath, Data: data}
}
