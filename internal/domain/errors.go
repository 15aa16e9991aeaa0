package domain

import "errors"

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrUnsupportedFormat   = errors.New("unsupported export format")
	ErrEmptyUpload         = errors.New("empty upload")
	ErrDecode              = errors.New("image could not be decoded")
	ErrImageTooLarge       = errors.New("image dimensions exceed limit")
	ErrRemovalUnavailable  = errors.New("background removal unavailable")
	ErrRemovalFailed       = errors.New("background removal failed")
	ErrEncode              = errors.New("image could not be encoded")
	ErrCacheMiss           = errors.New("cache miss")
)
