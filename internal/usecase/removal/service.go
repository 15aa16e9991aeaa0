package removal

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcos-nsantos/bg-remover/internal/adapter/storage"
	"github.com/marcos-nsantos/bg-remover/internal/domain"
	"github.com/marcos-nsantos/bg-remover/internal/domain/entity"
)

type Service struct {
	codec   storage.ImageCodec
	adapter *Adapter
	cache   *CachedRemover
}

func NewService(codec storage.ImageCodec, adapter *Adapter, cache *CachedRemover) *Service {
	return &Service{
		codec:   codec,
		adapter: adapter,
		cache:   cache,
	}
}

type ProcessInput struct {
	Filename string
	Data     []byte
	Format   entity.ImageFormat
}

// ProcessResult is filled stage by stage. When encoding fails Removal is still set so the
// caller can show the processed image without offering a download.
type ProcessResult struct {
	Original *entity.DecodedImage
	Removal  *entity.RemovalResult
	Export   *entity.ExportedFile
}

type Capability struct {
	Available bool
	Engine    string
}

func (s *Service) Capability() Capability {
	return Capability{
		Available: s.adapter.Available(),
		Engine:    s.adapter.Engine(),
	}
}

// Process runs upload validation, decoding, cached removal and export as one synchronous
// unit of work.
func (s *Service) Process(ctx context.Context, input ProcessInput) (*ProcessResult, error) {
	upload := entity.NewUploadedImage(input.Filename, input.Data)

	if !entity.IsAllowedUpload(upload.Filename) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, upload.Filename)
	}

	original, err := s.codec.Decode(upload.Data)
	if err != nil {
		if !isDecodeError(err) {
			err = fmt.Errorf("%w: %v", domain.ErrDecode, err)
		}
		return nil, err
	}

	result := &ProcessResult{Original: original}

	if !s.adapter.Available() {
		return result, domain.ErrRemovalUnavailable
	}

	removal, err := s.cache.Remove(ctx, upload.Data, original)
	if err != nil {
		return result, err
	}
	result.Removal = removal

	data, err := s.codec.Encode(removal.Image, input.Format)
	if err != nil {
		if !errors.Is(err, domain.ErrEncode) {
			err = fmt.Errorf("%w: %v", domain.ErrEncode, err)
		}
		return result, err
	}

	result.Export = &entity.ExportedFile{
		Data:     data,
		Filename: input.Format.ExportFilename(upload.Filename),
		MIMEType: input.Format.MIMEType(),
		Format:   input.Format,
	}

	return result, nil
}

func isDecodeError(err error) bool {
	return errors.Is(err, domain.ErrDecode) ||
		errors.Is(err, domain.ErrEmptyUpload) ||
		errors.Is(err, domain.ErrImageTooLarge)
}
