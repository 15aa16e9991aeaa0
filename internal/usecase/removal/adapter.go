package removal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/marcos-nsantos/bg-remover/internal/adapter/remover"
	"github.com/marcos-nsantos/bg-remover/internal/domain"
	"github.com/marcos-nsantos/bg-remover/internal/domain/entity"
)

const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeUnavailable = "unavailable"
)

// Recorder receives pipeline measurements. observability.Metrics satisfies it.
type Recorder interface {
	CacheLookup(tier, result string)
	RemovalObserved(outcome string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) CacheLookup(string, string) {}
func (nopRecorder) RemovalObserved(string, time.Duration) {}

// Adapter is the only place that calls the removal capability. A nil capability is a
// normal state and reports domain.ErrRemovalUnavailable.
type Adapter struct {
	capability remover.Remover
	recorder   Recorder
	logger     *zap.Logger
}

func NewAdapter(capability remover.Remover, recorder Recorder, logger *zap.Logger) *Adapter {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		capability: capability,
		recorder:   recorder,
		logger:     logger,
	}
}

func (a *Adapter) Available() bool {
	return a.capability != nil
}

func (a *Adapter) Engine() string {
	if a.capability == nil {
		return ""
	}
	return a.capability.Name()
}

// RemoveBackground makes a single attempt. Every failure, including a panic inside the
// capability, comes back as an error wrapping ErrRemovalFailed or ErrRemovalUnavailable.
func (a *Adapter) RemoveBackground(ctx context.Context, in *entity.DecodedImage) (out *entity.DecodedImage, err error) {
	if !a.Available() {
		a.recorder.RemovalObserved(OutcomeUnavailable, 0)
		return nil, domain.ErrRemovalUnavailable
	}
	if in == nil || in.Image == nil {
		return nil, fmt.Errorf("%w: no input image", domain.ErrRemovalFailed)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("removal capability panicked",
				zap.String("engine", a.capability.Name()),
				zap.Any("panic", r),
			)
			out, err = nil, fmt.Errorf("%w: capability panicked: %v", domain.ErrRemovalFailed, r)
		}

		outcome := OutcomeSuccess
		switch {
		case errors.Is(err, domain.ErrRemovalUnavailable):
			outcome = OutcomeUnavailable
		case err != nil:
			outcome = OutcomeFailure
		}
		a.recorder.RemovalObserved(outcome, time.Since(start))
	}()

	result, err := a.capability.Remove(ctx, in.Image)
	if err != nil {
		a.logger.Warn("background removal failed",
			zap.String("engine", a.capability.Name()),
			zap.Error(err),
		)
		if errors.Is(err, domain.ErrRemovalUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrRemovalFailed, err)
	}

	if result == nil {
		return nil, fmt.Errorf("%w: capability returned no image", domain.ErrRemovalFailed)
	}

	inSize, outSize := in.Image.Bounds().Size(), result.Bounds().Size()
	if inSize != outSize {
		return nil, fmt.Errorf("%w: capability returned %dx%d for %dx%d input",
			domain.ErrRemovalFailed, outSize.X, outSize.Y, inSize.X, inSize.Y)
	}

	return entity.NewDecodedImage(result, "png"), nil
}
