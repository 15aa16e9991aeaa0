package rembg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/bg-remover/internal/domain"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/config"
)

const (
	EngineName = "rembg"

	removePath   = "/api/remove"
	maxErrorBody = 512
)

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("rembg responded %d", e.code)
	}
	return fmt.Sprintf("rembg responded %d: %s", e.code, e.body)
}

// HTTPRemover calls a rembg server over HTTP. Calls go through a circuit breaker; while it
// is open Remove fails fast with domain.ErrRemovalUnavailable.
type HTTPRemover struct {
	endpoint string
	model    string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[[]byte]
	logger   *zap.Logger
}

func NewHTTPRemover(cfg config.RemoverConfig, logger *zap.Logger) (*HTTPRemover, error) {
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing remover url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("remover url must be absolute http(s), got %q", cfg.URL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        EngineName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Rejected input is not a sign of an unhealthy server.
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.code < http.StatusInternalServerError
			}
			return err == nil
		},
	}

	return &HTTPRemover{
		endpoint: strings.TrimRight(cfg.URL, "/") + removePath,
		model:    cfg.Model,
		client:   &http.Client{Timeout: cfg.Timeout},
		breaker:  gobreaker.NewCircuitBreaker[[]byte](settings),
		logger:   logger,
	}, nil
}

func (r *HTTPRemover) Name() string {
	return EngineName
}

func (r *HTTPRemover) State() gobreaker.State {
	return r.breaker.State()
}

func (r *HTTPRemover) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	var payload bytes.Buffer
	if err := imaging.Encode(&payload, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding rembg request: %w", err)
	}

	body, err := r.breaker.Execute(func() ([]byte, error) {
		return r.post(ctx, payload.Bytes())
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", domain.ErrRemovalUnavailable, err)
		}
		return nil, err
	}

	out, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decoding rembg response: %w", err)
	}

	return out, nil
}

func (r *HTTPRemover) post(ctx context.Context, png []byte) ([]byte, error) {
	var form bytes.Buffer
	writer := multipart.NewWriter(&form)

	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(png); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if r.model != "" {
		if err := writer.WriteField("model", r.model); err != nil {
			return nil, fmt.Errorf("writing model field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, &form)
	if err != nil {
		return nil, fmt.Errorf("creating rembg request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "image/png")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling rembg: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading rembg response: %w", err)
	}

	r.logger.Debug("rembg call finished",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := data
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(excerpt))}
	}

	return data, nil
}
