package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/marcos-nsantos/bg-remover/internal/domain"
	"github.com/marcos-nsantos/bg-remover/internal/domain/entity"
)

const (
	MaxImageWidth  = 8192
	MaxImageHeight = 8192
	JPEGQuality    = 95
)

type ImageCodec struct {
	maxWidth  int
	maxHeight int
	quality   int
}

type CodecOption func(*ImageCodec)

func WithMaxDimensions(width, height int) CodecOption {
	return func(c *ImageCodec) {
		if width > 0 {
			c.maxWidth = width
		}
		if height > 0 {
			c.maxHeight = height
		}
	}
}

func WithJPEGQuality(quality int) CodecOption {
	return func(c *ImageCodec) {
		if quality >= 1 && quality <= 100 {
			c.quality = quality
		}
	}
}

func NewImageCodec(opts ...CodecOption) *ImageCodec {
	c := &ImageCodec{
		maxWidth:  MaxImageWidth,
		maxHeight: MaxImageHeight,
		quality:   JPEGQuality,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decode accepts PNG and JPEG only. The header is checked before the full decode so that
// oversized images are rejected without allocating their pixel buffer.
func (c *ImageCodec) Decode(data []byte) (*entity.DecodedImage, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyUpload
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}

	if format != "png" && format != "jpeg" {
		return nil, fmt.Errorf("%w: unsupported image format %q", domain.ErrDecode, format)
	}

	if cfg.Width > c.maxWidth || cfg.Height > c.maxHeight {
		return nil, fmt.Errorf("%w: %dx%d exceeds %dx%d",
			domain.ErrImageTooLarge, cfg.Width, cfg.Height, c.maxWidth, c.maxHeight)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}

	return entity.NewDecodedImage(img, format), nil
}

func (c *ImageCodec) Encode(img *entity.DecodedImage, format entity.ImageFormat) ([]byte, error) {
	if img == nil || img.Image == nil {
		return nil, fmt.Errorf("%w: no image", domain.ErrEncode)
	}

	var buf bytes.Buffer

	switch format {
	case entity.FormatPNG:
		if err := imaging.Encode(&buf, img.Image, imaging.PNG); err != nil {
			return nil, fmt.Errorf("%w: encoding png: %v", domain.ErrEncode, err)
		}
	case entity.FormatJPG:
		src := img.Image
		if img.HasAlpha() {
			src = Flatten(src, color.White)
		}
		if err := imaging.Encode(&buf, src, imaging.JPEG, imaging.JPEGQuality(c.quality)); err != nil {
			return nil, fmt.Errorf("%w: encoding jpeg: %v", domain.ErrEncode, err)
		}
	default:
		return nil, errors.Join(domain.ErrEncode, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format))
	}

	return buf.Bytes(), nil
}

// Flatten composites img over an opaque background using the alpha channel as the blend
// weight. The result is fully opaque.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), bg)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}
