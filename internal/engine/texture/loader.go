// Package texture decodes image files and uploads them as GPU textures.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/glsandbox/internal/engine/gpu"
	"github.com/Faultbox/glsandbox/internal/logger"
)

var (
	// ErrIO reports an image file that could not be read.
	ErrIO = errors.New("texture: cannot read image")
	// ErrDecode reports image data in an unknown or corrupt format.
	ErrDecode = errors.New("texture: cannot decode image")
)

// Options controls how images are prepared before upload.
type Options struct {
	// FlipVertical mirrors rows so the first row is the bottom of the
	// texture. Leave off for models imported with flipped UVs.
	FlipVertical bool
	Mipmaps      bool
	Repeat       bool
}

// DefaultOptions is mipmapped, repeating and not flipped.
func DefaultOptions() Options {
	return Options{Mipmaps: true, Repeat: true}
}

// Loader reads image files and creates textures on a device.
type Loader struct {
	dev  gpu.Device
	opts Options
}

// NewLoader creates a loader that uploads through dev.
func NewLoader(dev gpu.Device, opts Options) *Loader {
	return &Loader{dev: dev, opts: opts}
}

// Load decodes the file at path and returns the new texture handle.
func (l *Loader) Load(path string) (uint32, error) {
	log := logger.Named("texture")

	img, err := Decode(path)
	if err != nil {
		log.Error("texture failed to load", zap.String("path", path), zap.Error(err))
		return 0, err
	}
	return l.upload(path, img), nil
}

// LoadBytes decodes image data held in memory, such as a texture embedded
// in a model file. name only labels log entries.
func (l *Loader) LoadBytes(name string, data []byte, ext string) (uint32, error) {
	img, err := DecodeBytes(data, ext)
	if err != nil {
		logger.Named("texture").Error("embedded texture failed to decode", zap.String("name", name), zap.Error(err))
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return l.upload(name, img), nil
}

func (l *Loader) upload(name string, img *image.RGBA) uint32 {
	if l.opts.FlipVertical {
		FlipVertical(img)
	}
	id := l.dev.CreateTexture(img, gpu.TextureOptions{Mipmaps: l.opts.Mipmaps, Repeat: l.opts.Repeat})
	logger.Named("texture").Debug("texture loaded",
		zap.String("path", name),
		zap.Uint32("id", id),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	return id
}

// Decode reads an image file into RGBA. TGA is chosen by extension; every
// other format is sniffed by the registered decoders.
func Decode(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}
	return DecodeBytes(data, filepath.Ext(path))
}

// DecodeBytes decodes in-memory image data; ext is a hint such as ".tga".
func DecodeBytes(data []byte, ext string) (*image.RGBA, error) {
	if strings.EqualFold(ext, ".tga") {
		return DecodeTGA(data)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("%w: %s has zero size %dx%d", ErrDecode, format, b.Dx(), b.Dy())
	}
	return ToRGBA(img), nil
}

// ToRGBA converts img to RGBA with its origin at (0,0), copying only when
// it has to.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// FlipVertical mirrors img top to bottom in place.
func FlipVertical(img *image.RGBA) {
	h := img.Rect.Dy()
	row := img.Rect.Dx() * 4
	tmp := make([]byte, row)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : y*img.Stride+row]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-1-y)*img.Stride+row]
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
}
