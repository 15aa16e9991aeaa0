package handler

import (
	"errors"
	"net/http"

	"github.com/marcos-nsantos/bg-remover/internal/domain"
	"github.com/marcos-nsantos/bg-remover/internal/pkg/apperror"
)

func toAppError(err error) *apperror.AppError {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return apperror.BadRequest("INVALID_TYPE", "only jpg, jpeg and png images are allowed")
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return apperror.BadRequest("INVALID_FORMAT", "format must be PNG or JPG")
	case errors.Is(err, domain.ErrEmptyUpload):
		return apperror.BadRequest("INVALID_FILE", "file is empty")
	case errors.Is(err, domain.ErrImageTooLarge):
		return apperror.Unprocessable("IMAGE_TOO_LARGE", "image dimensions are too large")
	case errors.Is(err, domain.ErrDecode):
		return apperror.Unprocessable("DECODE_ERROR", "the uploaded file is not a valid image")
	case errors.Is(err, domain.ErrRemovalUnavailable):
		return apperror.Unavailable("REMOVAL_UNAVAILABLE", "background removal is not available")
	case errors.Is(err, domain.ErrRemovalFailed):
		return apperror.BadGateway("REMOVAL_FAILED", err.Error())
	case errors.Is(err, domain.ErrEncode):
		return apperror.New("ENCODE_ERROR", "could not prepare the download", http.StatusInternalServerError)
	default:
		return apperror.Internal(err)
	}
}
