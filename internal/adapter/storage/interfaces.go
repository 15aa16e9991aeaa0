package storage

import (
	"context"

	"github.com/marcos-nsantos/bg-remover/internal/domain/entity"
)

//go:generate mockgen -source=interfaces.go -destination=../../mocks/storage_mocks.go -package=mocks

// ResultStore is a shared cache tier for removal results. Get returns domain.ErrCacheMiss
// when the key is absent.
type ResultStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Name() string
}

type ImageCodec interface {
	Decode(data []byte) (*entity.DecodedImage, error)
	Encode(img *entity.DecodedImage, format entity.ImageFormat) ([]byte, error)
}
