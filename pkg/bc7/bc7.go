// Package bc7 defines the texture encoder the packer depends on.
//
// The packer never encodes pixels itself. An Encoder turns an RGBA image
// into BC7 blocks; Command delegates that to an external program.
package bc7

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"
)

// ErrEncoderUnavailable is returned when no working encoder is configured.
var ErrEncoderUnavailable = errors.New("bc7 encoder unavailable")

// Encoder converts RGBA pixels to BC7 blocks.
type Encoder interface {
	// Available reports whether Encode can be called. It returns an error
	// wrapping ErrEncoderUnavailable if not.
	Available() error
	Encode(ctx context.Context, img *image.RGBA) ([]byte, error)
}

// Unavailable is the encoder used when none is configured.
type Unavailable struct{}

func (Unavailable) Available() error {
	return fmt.Errorf("%w: no encoder configured", ErrEncoderUnavailable)
}

func (u Unavailable) Encode(context.Context, *image.RGBA) ([]byte, error) {
	return nil, u.Available()
}

// Command runs an external encoder. The program receives tightly packed
// RGBA rows on stdin and must write the BC7 blocks to stdout. The
// placeholders {width} and {height} in Args are replaced per image.
type Command struct {
	Path string
	Args []string
}

func (c *Command) Available() error {
	if c.Path == "" {
		return fmt.Errorf("%w: no encoder command configured", ErrEncoderUnavailable)
	}
	if _, err := exec.LookPath(c.Path); err != nil {
		return fmt.Errorf("%w: %w", ErrEncoderUnavailable, err)
	}
	return nil
}

func (c *Command) Encode(ctx context.Context, img *image.RGBA) ([]byte, error) {
	if err := c.Available(); err != nil {
		return nil, err
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	replacer := strings.NewReplacer("{width}", strconv.Itoa(w), "{height}", strconv.Itoa(h))
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = replacer.Replace(a)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, args...)
	cmd.Stdin = bytes.NewReader(PackedPixels(img))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("encoder %s failed: %w: %s", c.Path, err, msg)
		}
		return nil, fmt.Errorf("encoder %s failed: %w", c.Path, err)
	}
	return stdout.Bytes(), nil
}

// PackedPixels returns the pixels of img with no padding between rows.
func PackedPixels(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if img.Stride == 4*w && len(img.Pix) == 4*w*h {
		return img.Pix
	}
	out := make([]byte, 0, 4*w*h)
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		start := img.PixOffset(img.Rect.Min.X, y)
		out = append(out, img.Pix[start:start+4*w]...)
	}
	return out
}
