// Package texpak builds world-map texture archives.
//
// A Packer frames each BC7 texture with its map header, adds the
// world-map background, and writes everything into one .pak archive in
// path order. Inputs are validated before the output is created, and the
// archive is written to a temporary file that only replaces the output
// path once it is complete.
package texpak

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/user/mappak/pkg/bc7"
	"github.com/user/mappak/pkg/config"
	"github.com/user/mappak/pkg/headers"
	"github.com/user/mappak/pkg/imageload"
	"github.com/user/mappak/pkg/pak"
	"github.com/user/mappak/pkg/uasset"
)

var (
	// ErrInvalidDimensions is returned for images that are not TextureWidth x TextureHeight.
	ErrInvalidDimensions = errors.New("invalid image dimensions")

	// ErrDuplicateTexture is returned when two inputs name the same map slot.
	ErrDuplicateTexture = errors.New("texture given more than once")
)

// Packer writes texture archives. It is safe to use from several
// goroutines as long as they write different output paths.
type Packer struct {
	catalog    *headers.Catalog
	background []byte
	encoder    bc7.Encoder
	compressor *pak.Compressor
	logger     *slog.Logger
	resize     bool
}

// Option configures a Packer.
type Option func(*Packer)

// WithEncoder sets the BC7 encoder used by PackPixels and PackFolder.
func WithEncoder(enc bc7.Encoder) Option {
	return func(p *Packer) { p.encoder = enc }
}

// WithCompressor sets the zlib level and worker count for compressed archives.
func WithCompressor(c *pak.Compressor) Option {
	return func(p *Packer) { p.compressor = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Packer) { p.logger = logger }
}

// WithResize makes PackPixels scale images to the texture size instead of
// rejecting other sizes.
func WithResize(resize bool) Option {
	return func(p *Packer) { p.resize = resize }
}

// New returns a Packer for the given header catalog and background asset.
func New(catalog *headers.Catalog, background []byte, opts ...Option) (*Packer, error) {
	if catalog == nil {
		return nil, errors.New("header catalog is required")
	}
	if len(background) == 0 {
		return nil, errors.New("background asset is empty")
	}
	p := &Packer{
		catalog:    catalog,
		background: background,
		encoder:    bc7.Unavailable{},
		compressor: pak.DefaultCompressor,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewFromConfig loads the header templates and background named by cfg
// and returns a Packer using cfg's compression and encoder settings.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Packer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	catalog, err := headers.Load(cfg.HeadersDir)
	if err != nil {
		return nil, err
	}
	background, err := os.ReadFile(cfg.Background)
	if err != nil {
		return nil, fmt.Errorf("failed to read background asset: %w", err)
	}
	compressor, err := pak.NewCompressor(cfg.CompressionLevel, cfg.Workers)
	if err != nil {
		return nil, err
	}

	var encoder bc7.Encoder = bc7.Unavailable{}
	if cfg.Encoder.Command != "" {
		encoder = &bc7.Command{Path: cfg.Encoder.Command, Args: cfg.Encoder.Args}
	}
	logger.Debug("loaded packer resources",
		"headers", catalog.Len(),
		"headers_dir", cfg.HeadersDir,
		"background", cfg.Background,
		"background_size", len(background),
	)
	return New(catalog, background,
		WithEncoder(encoder),
		WithCompressor(compressor),
		WithLogger(logger),
		WithResize(cfg.Resize),
	)
}

// Catalog returns the header catalog the Packer resolves names against.
func (p *Packer) Catalog() *headers.Catalog { return p.catalog }

// PackBC7 writes an archive holding one framed asset per texture plus
// the background. Every texture must be exactly uasset.TextureSize bytes
// and named after a catalog entry (in any casing). Nothing is written if
// validation fails, and a failed write leaves no file at outputPath.
func (p *Packer) PackBC7(ctx context.Context, outputPath string, compress bool, textures map[string][]byte) error {
	names := sortedKeys(textures)
	for _, name := range names {
		if err := uasset.ValidatePayload(textures[name]); err != nil {
			return fmt.Errorf("texture %s: %w", name, err)
		}
	}

	assets := make([]uasset.Asset, 0, len(names)+1)
	seen := make(map[string]string, len(names))
	for _, name := range names {
		asset, err := uasset.Frame(p.catalog, name, textures[name])
		if err != nil {
			return err
		}
		if prev, dup := seen[asset.Path]; dup {
			return fmt.Errorf("%w: %s and %s", ErrDuplicateTexture, prev, name)
		}
		seen[asset.Path] = name
		assets = append(assets, asset)
	}
	assets = append(assets, uasset.Background(p.background))
	sort.Slice(assets, func(i, j int) bool { return assets[i].Path < assets[j].Path })

	return p.write(ctx, outputPath, compress, assets)
}

func (p *Packer) write(ctx context.Context, outputPath string, compress bool, assets []uasset.Asset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out, err := createOutput(outputPath)
	if err != nil {
		return err
	}
	defer out.Abort()

	w := pak.NewWriter(out, p.compressor)
	for _, asset := range assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, err := w.Add(asset.Path, asset.Data, compress)
		if err != nil {
			return err
		}
		p.logger.Debug("wrote record",
			"path", asset.Path,
			"offset", entry.Offset,
			"size", entry.Size,
			"uncompressed_size", entry.UncompressedSize,
			"blocks", len(entry.Blocks),
		)
	}
	footer, err := w.Close()
	if err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := out.Commit(); err != nil {
		return err
	}

	p.logger.Info("archive written",
		"path", outputPath,
		"records", len(assets),
		"compressed", compress,
		"index_offset", footer.IndexOffset,
		"index_size", footer.IndexSize,
	)
	return nil
}

// PackPixels encodes each image to BC7 and packs the results with
// PackBC7. Names, duplicates and image sizes are checked before anything
// is encoded.
func (p *Packer) PackPixels(ctx context.Context, outputPath string, compress bool, images map[string]*image.RGBA) error {
	if err := p.encoder.Available(); err != nil {
		return err
	}

	names := sortedKeys(images)
	prepared := make(map[string]*image.RGBA, len(images))
	seen := make(map[string]string, len(images))
	for _, name := range names {
		tmpl, err := p.catalog.Resolve(name)
		if err != nil {
			return err
		}
		if prev, dup := seen[tmpl.Name]; dup {
			return fmt.Errorf("%w: %s and %s", ErrDuplicateTexture, prev, name)
		}
		seen[tmpl.Name] = name
		img := images[name]
		if img == nil {
			return fmt.Errorf("image %s is nil", name)
		}
		if p.resize {
			img = imageload.Resize(imageload.ToRGBA(img), uasset.TextureWidth, uasset.TextureHeight)
		} else if w, h := img.Rect.Dx(), img.Rect.Dy(); w != uasset.TextureWidth || h != uasset.TextureHeight {
			return fmt.Errorf("%w: %s is %dx%d, want %dx%d",
				ErrInvalidDimensions, name, w, h, uasset.TextureWidth, uasset.TextureHeight)
		}
		prepared[name] = img
	}

	textures := make(map[string][]byte, len(prepared))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		encoded, err := p.encoder.Encode(ctx, prepared[name])
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		p.logger.Debug("encoded texture", "name", name, "size", len(encoded))
		textures[name] = encoded
	}
	return p.PackBC7(ctx, outputPath, compress, textures)
}

// PackFolder decodes every supported image in dir, using the file name
// without extension as the map name, and packs them with PackPixels.
func (p *Packer) PackFolder(ctx context.Context, outputPath string, compress bool, dir string) error {
	if err := p.encoder.Available(); err != nil {
		return err
	}
	images, err := imageload.LoadFolder(dir)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		p.logger.Warn("no images found; archive will only hold the background", "dir", dir)
	}
	p.logger.Info("loaded images", "dir", dir, "count", len(images))
	return p.PackPixels(ctx, outputPath, compress, images)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
