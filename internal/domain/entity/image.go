package entity

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"
)

type ColorMode string

const (
	ColorModeRGB  ColorMode = "RGB"
	ColorModeRGBA ColorMode = "RGBA"
)

var allowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// IsAllowedUpload reports whether the filename carries one of the accepted image extensions.
func IsAllowedUpload(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	_, ok := allowedExtensions[ext]
	return ok
}

type UploadedImage struct {
	Filename string
	Data     []byte
}

func NewUploadedImage(filename string, data []byte) *UploadedImage {
	return &UploadedImage{
		Filename: filename,
		Data:     data,
	}
}

type DecodedImage struct {
	Image  image.Image
	Format string
}

func NewDecodedImage(img image.Image, format string) *DecodedImage {
	return &DecodedImage{
		Image:  img,
		Format: format,
	}
}

func (d *DecodedImage) Width() int {
	return d.Image.Bounds().Dx()
}

func (d *DecodedImage) Height() int {
	return d.Image.Bounds().Dy()
}

func (d *DecodedImage) Mode() ColorMode {
	if d.HasAlpha() {
		return ColorModeRGBA
	}
	return ColorModeRGB
}

// HasAlpha reports whether the pixel buffer carries an alpha channel. It looks at the
// color model, not at the pixel values, so a fully opaque RGBA image still has alpha.
func (d *DecodedImage) HasAlpha() bool {
	switch d.Image.ColorModel() {
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model,
		color.AlphaModel, color.Alpha16Model:
		return true
	}
	if p, ok := d.Image.ColorModel().(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

type RemovalResult struct {
	Key    string
	Image  *DecodedImage
	Cached bool
}

type ExportedFile struct {
	Data     []byte
	Filename string
	MIMEType string
	Format   ImageFormat
}

func (f *ExportedFile) Size() int64 {
	return int64(len(f.Data))
}
