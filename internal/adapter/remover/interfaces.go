package remover

import (
	"context"
	"image"
)

//go:generate mockgen -source=interfaces.go -destination=../../mocks/remover_mocks.go -package=mocks

// Remover returns the same subject with background pixels made transparent.
type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
	Name() string
}
