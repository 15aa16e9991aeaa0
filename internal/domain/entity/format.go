package entity

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/marcos-nsantos/bg-remover/internal/domain"
)

const ExportFilenamePrefix = "bg_removed"

type ImageFormat string

const (
	FormatPNG ImageFormat = "PNG"
	FormatJPG ImageFormat = "JPG"
)

// ParseImageFormat accepts PNG or JPG in any case, plus the JPEG alias. An empty string
// selects PNG.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "PNG":
		return FormatPNG, nil
	case "JPG", "JPEG":
		return FormatJPG, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, s)
	}
}

func (f ImageFormat) Extension() string {
	return strings.ToLower(string(f))
}

func (f ImageFormat) MIMEType() string {
	return "image/" + f.Extension()
}

func (f ImageFormat) Lossless() bool {
	return f == FormatPNG
}

// ExportFilename builds bg_removed_{stem}.{ext} from the uploaded filename.
func (f ImageFormat) ExportFilename(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_%s.%s", ExportFilenamePrefix, stem, f.Extension())
}
