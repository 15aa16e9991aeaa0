package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marcos-nsantos/bg-remover/internal/adapter/handler/dto/response"
	"github.com/marcos-nsantos/bg-remover/internal/domain/entity"
	"github.com/marcos-nsantos/bg-remover/internal/pkg/apperror"
	"github.com/marcos-nsantos/bg-remover/internal/pkg/httputil"
	"github.com/marcos-nsantos/bg-remover/internal/usecase/removal"
)

const (
	DefaultMaxUploadSize = 10 << 20 // 10MB

	HeaderCache      = "X-Cache"
	HeaderRemovalKey = "X-Removal-Key"
)

type RemovalHandler struct {
	removalSvc    RemovalService
	maxUploadSize int64
}

func NewRemovalHandler(removalSvc RemovalService, maxUploadSize int64) *RemovalHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &RemovalHandler{
		removalSvc:    removalSvc,
		maxUploadSize: maxUploadSize,
	}
}

// Remove runs the whole pipeline and answers with the exported file as a download.
func (h *RemovalHandler) Remove(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	format, err := entity.ParseImageFormat(formatParam(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.removalSvc.Process(c.Request.Context(), removal.ProcessInput{
		Filename: filename,
		Data:     data,
		Format:   format,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	setRemovalHeaders(c, result.Removal)
	httputil.Attachment(c, result.Export.Filename, result.Export.MIMEType, result.Export.Data)
}

// Preview answers with the processed image as an inline PNG.
func (h *RemovalHandler) Preview(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	result, err := h.removalSvc.Process(c.Request.Context(), removal.ProcessInput{
		Filename: filename,
		Data:     data,
		Format:   entity.FormatPNG,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	setRemovalHeaders(c, result.Removal)
	httputil.Inline(c, result.Export.Filename, result.Export.MIMEType, result.Export.Data)
}

func (h *RemovalHandler) Capability(c *gin.Context) {
	httputil.OK(c, response.CapabilityToResponse(h.removalSvc.Capability()))
}

func (h *RemovalHandler) readUpload(c *gin.Context) (string, []byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			httputil.HandleError(c, apperror.TooLarge("file exceeds the upload size limit"))
			return "", nil, false
		}
		httputil.ErrorWithCode(c, http.StatusBadRequest, "INVALID_FILE", "file is required")
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		if isBodyTooLarge(err) {
			httputil.HandleError(c, apperror.TooLarge("file exceeds the upload size limit"))
			return "", nil, false
		}
		httputil.ErrorWithCode(c, http.StatusBadRequest, "INVALID_FILE", "file could not be read")
		return "", nil, false
	}

	return header.Filename, data, true
}

func (h *RemovalHandler) fail(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.Err == nil {
		appErr.Err = err
	}
	httputil.HandleError(c, appErr)
}

func setRemovalHeaders(c *gin.Context, r *entity.RemovalResult) {
	if r == nil {
		return
	}
	c.Header(HeaderRemovalKey, r.Key)
	if r.Cached {
		c.Header(HeaderCache, "HIT")
	} else {
		c.Header(HeaderCache, "MISS")
	}
}

func formatParam(c *gin.Context) string {
	if f := c.Query("format"); f != "" {
		return f
	}
	return c.PostForm("format")
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
