package removal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/marcos-nsantos/bg-remover/internal/adapter/storage"
	"github.com/marcos-nsantos/bg-remover/internal/domain"
	"github.com/marcos-nsantos/bg-remover/internal/domain/entity"
)

const (
	TierMemory = "memory"

	lookupHit   = "hit"
	lookupMiss  = "miss"
	lookupError = "error"
)

// Key identifies an upload by the SHA-256 of its exact bytes.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type flightResult struct {
	image  *entity.DecodedImage
	cached bool
}

// CachedRemover memoizes Adapter.RemoveBackground per input key. The in-process tier is an
// LRU bounded by entry count; the optional shared tier holds lossless PNG bytes. Only
// successful removals are stored. Concurrent requests for the same key share one
// computation.
type CachedRemover struct {
	adapter  *Adapter
	codec    storage.ImageCodec
	store    storage.ResultStore
	entries  *lru.Cache[string, *entity.DecodedImage]
	group    singleflight.Group
	recorder Recorder
	logger   *zap.Logger
}

func NewCachedRemover(
	adapter *Adapter,
	codec storage.ImageCodec,
	store storage.ResultStore,
	capacity int,
	recorder Recorder,
	logger *zap.Logger,
) (*CachedRemover, error) {
	entries, err := lru.New[string, *entity.DecodedImage](capacity)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CachedRemover{
		adapter:  adapter,
		codec:    codec,
		store:    store,
		entries:  entries,
		recorder: recorder,
		logger:   logger,
	}, nil
}

func (c *CachedRemover) Len() int {
	return c.entries.Len()
}

func (c *CachedRemover) Remove(ctx context.Context, data []byte, img *entity.DecodedImage) (*entity.RemovalResult, error) {
	key := Key(data)

	if cached, ok := c.entries.Get(key); ok {
		c.recorder.CacheLookup(TierMemory, lookupHit)
		return &entity.RemovalResult{Key: key, Image: cached, Cached: true}, nil
	}
	c.recorder.CacheLookup(TierMemory, lookupMiss)

	// The flight outlives the caller that started it, so a disconnecting client does not
	// fail the requests waiting on the same key.
	flightCtx := context.WithoutCancel(ctx)

	v, err, _ := c.group.Do(key, func() (any, error) {
		if cached, ok := c.entries.Get(key); ok {
			return flightResult{image: cached, cached: true}, nil
		}

		if shared, ok := c.loadShared(flightCtx, key); ok {
			c.entries.Add(key, shared)
			return flightResult{image: shared, cached: true}, nil
		}

		out, err := c.adapter.RemoveBackground(flightCtx, img)
		if err != nil {
			return nil, err
		}

		c.entries.Add(key, out)
		c.storeShared(flightCtx, key, out)

		return flightResult{image: out}, nil
	})
	if err != nil {
		return nil, err
	}

	res := v.(flightResult)
	return &entity.RemovalResult{Key: key, Image: res.image, Cached: res.cached}, nil
}

func (c *CachedRemover) loadShared(ctx context.Context, key string) (*entity.DecodedImage, bool) {
	if c.store == nil {
		return nil, false
	}

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			c.recorder.CacheLookup(c.store.Name(), lookupMiss)
		} else {
			c.recorder.CacheLookup(c.store.Name(), lookupError)
			c.logger.Warn("reading shared removal cache",
				zap.String("tier", c.store.Name()),
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return nil, false
	}

	img, err := c.codec.Decode(data)
	if err != nil {
		c.recorder.CacheLookup(c.store.Name(), lookupError)
		c.logger.Warn("decoding shared removal cache entry",
			zap.String("tier", c.store.Name()),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false
	}

	c.recorder.CacheLookup(c.store.Name(), lookupHit)
	return img, true
}

func (c *CachedRemover) storeShared(ctx context.Context, key string, img *entity.DecodedImage) {
	if c.store == nil {
		return
	}

	data, err := c.codec.Encode(img, entity.FormatPNG)
	if err != nil {
		c.logger.Warn("encoding removal result for shared cache", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.store.Put(ctx, key, data); err != nil {
		c.logger.Warn("writing shared removal cache",
			zap.String("tier", c.store.Name()),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
