package uasset

import (
	"bytes"
	"errors"
	"testing"

	"github.com/user/mappak/pkg/headers"
)

func TestTextureSize(t *testing.T) {
	if TextureSize != 3637248 {
		t.Errorf("Expected TextureSize 3637248, got %d", TextureSize)
	}
}

func TestFrame(t *testing.T) {
	cat, err := headers.New(map[string][]byte{"MapOnyxHex": []byte("HEADER")})
	if err != nil {
		t.Fatalf("headers.New failed: %v", err)
	}
	payload := bytes.Repeat([]byte{0xAB}, TextureSize)

	asset, err := Frame(cat, "maponyxhex", payload)
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if want := `War\Content\Textures\UI\HexMaps\Processed\MapOnyxHex.uasset`; asset.Path != want {
		t.Errorf("Expected path %q, got %q", want, asset.Path)
	}
	if len(asset.Data) != len("HEADER")+TextureSize+len(Trailer) {
		t.Fatalf("Unexpected framed size %d", len(asset.Data))
	}
	if !bytes.HasPrefix(asset.Data, []byte("HEADER")) {
		t.Error("framed data does not start with the header template")
	}
	if !bytes.HasSuffix(asset.Data, Trailer[:]) {
		t.Error("framed data does not end with the trailer")
	}
	if !bytes.Equal(asset.Data[6:6+TextureSize], payload) {
		t.Error("payload not copied between header and trailer")
	}
}

func TestFrame_Errors(t *testing.T) {
	cat, err := headers.New(map[string][]byte{"MapOnyxHex": []byte("HEADER")})
	if err != nil {
		t.Fatalf("headers.New failed: %v", err)
	}

	if _, err := Frame(cat, "MapOnyxHex", make([]byte, TextureSize-1)); !errors.Is(err, ErrInvalidTextureSize) {
		t.Errorf("Expected ErrInvalidTextureSize, got %v", err)
	}
	if _, err := Frame(cat, "MapElsewhereHex", make([]byte, TextureSize)); !errors.Is(err, headers.ErrUnknownName) {
		t.Errorf("Expected ErrUnknownName, got %v", err)
	}
}

func TestBackground(t *testing.T) {
	asset := Background([]byte("bg"))
	if asset.Path != BackgroundPath || string(asset.Data) != "bg" {
		t.Errorf("Unexpected background asset %+v", asset)
	}
}
