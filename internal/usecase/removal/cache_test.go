package removal_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	port "github.com/marcos-nsantos/bg-remover/internal/adapter/storage"
	"github.com/marcos-nsantos/bg-remover/internal/domain"
	"github.com/marcos-nsantos/bg-remover/internal/domain/entity"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/storage"
	"github.com/marcos-nsantos/bg-remover/internal/mocks"
	"github.com/marcos-nsantos/bg-remover/internal/usecase/removal"
)

type cacheFixture struct {
	capability *mocks.MockRemover
	recorder   *fakeRecorder
	cache      *removal.CachedRemover
}

func newCacheFixture(t *testing.T, ctrl *gomock.Controller, store *mocks.MockResultStore, capacity int) *cacheFixture {
	t.Helper()

	capability := mocks.NewMockRemover(ctrl)
	capability.EXPECT().Name().Return("fake").AnyTimes()
	recorder := newFakeRecorder()
	adapter := removal.NewAdapter(capability, recorder, nil)

	var resultStore port.ResultStore
	if store != nil {
		resultStore = store
	}

	cache, err := removal.NewCachedRemover(adapter, storage.NewImageCodec(), resultStore, capacity, recorder, nil)
	require.NoError(t, err)

	return &cacheFixture{capability: capability, recorder: recorder, cache: cache}
}

func decoded(w, h int, c color.NRGBA) (*entity.DecodedImage, []byte) {
	img := opaqueImage(w, h, c)
	return entity.NewDecodedImage(img, "png"), img.Pix
}

func TestKey(t *testing.T) {
	assert.Equal(t, removal.Key([]byte("abc")), removal.Key([]byte("abc")))
	assert.NotEqual(t, removal.Key([]byte("abc")), removal.Key([]byte("abd")))
	assert.Len(t, removal.Key(nil), 64)
}

func TestCachedRemover_Remove(t *testing.T) {
	t.Run("identical bytes invoke capability once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newCacheFixture(t, ctrl, nil, 4)
		ctx := context.Background()
		img, data := decoded(6, 4, color.NRGBA{R: 200, A: 255})

		f.capability.EXPECT().Remove(gomock.Any(), img.Image).Return(cutout(img.Image), nil).Times(1)

		first, err := f.cache.Remove(ctx, data, img)
		require.NoError(t, err)
		assert.False(t, first.Cached)

		second, err := f.cache.Remove(ctx, append([]byte(nil), data...), img)
		require.NoError(t, err)
		assert.True(t, second.Cached)

		assert.Equal(t, first.Key, second.Key)
		assert.Same(t, first.Image, second.Image)
		assert.Equal(t, 1, f.recorder.lookup("memory/hit"))
		assert.Equal(t, 1, f.recorder.lookup("memory/miss"))
		assert.Equal(t, 1, f.cache.Len())
	})

	t.Run("different bytes are computed separately", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newCacheFixture(t, ctrl, nil, 4)
		ctx := context.Background()
		a, dataA := decoded(4, 4, color.NRGBA{R: 1, A: 255})
		b, dataB := decoded(4, 4, color.NRGBA{R: 2, A: 255})

		f.capability.EXPECT().Remove(gomock.Any(), a.Image).Return(cutout(a.Image), nil)
		f.capability.EXPECT().Remove(gomock.Any(), b.Image).Return(cutout(b.Image), nil)

		resA, err := f.cache.Remove(ctx, dataA, a)
		require.NoError(t, err)
		resB, err := f.cache.Remove(ctx, dataB, b)
		require.NoError(t, err)

		assert.NotEqual(t, resA.Key, resB.Key)
		assert.Equal(t, 2, f.cache.Len())
	})

	t.Run("failures are not cached", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newCacheFixture(t, ctrl, nil, 4)
		ctx := context.Background()
		img, data := decoded(4, 4, color.NRGBA{G: 9, A: 255})

		gomock.InOrder(
			f.capability.EXPECT().Remove(gomock.Any(), gomock.Any()).Return(nil, errors.New("temporarily broken")),
			f.capability.EXPECT().Remove(gomock.Any(), gomock.Any()).Return(cutout(img.Image), nil),
		)

		_, err := f.cache.Remove(ctx, data, img)
		assert.ErrorIs(t, err, domain.ErrRemovalFailed)

		res, err := f.cache.Remove(ctx, data, img)
		require.NoError(t, err)
		assert.False(t, res.Cached)
	})

	t.Run("evicts least recently used entry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newCacheFixture(t, ctrl, nil, 1)
		ctx := context.Background()
		a, dataA := decoded(4, 4, color.NRGBA{B: 1, A: 255})
		b, dataB := decoded(4, 4, color.NRGBA{B: 2, A: 255})

		f.capability.EXPECT().Remove(gomock.Any(), a.Image).Return(cutout(a.Image), nil).Times(2)
		f.capability.EXPECT().Remove(gomock.Any(), b.Image).Return(cutout(b.Image), nil).Times(1)

		for _, step := range []struct {
			img  *entity.DecodedImage
			data []byte
		}{{a, dataA}, {b, dataB}, {a, dataA}} {
			_, err := f.cache.Remove(ctx, step.data, step.img)
			require.NoError(t, err)
		}

		assert.Equal(t, 1, f.cache.Len())
	})

	t.Run("concurrent requests share one computation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newCacheFixture(t, ctrl, nil, 4)
		img, data := decoded(8, 8, color.NRGBA{R: 50, G: 60, B: 70, A: 255})

		f.capability.EXPECT().Remove(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, src image.Image) (image.Image, error) {
				time.Sleep(50 * time.Millisecond)
				return cutout(src), nil
			}).
			Times(1)

		const workers = 8
		results := make([]*entity.RemovalResult, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				res, err := f.cache.Remove(context.Background(), data, img)
				assert.NoError(t, err)
				results[i] = res
			}(i)
		}
		wg.Wait()

		for _, res := range results {
			require.NotNil(t, res)
			assert.Same(t, results[0].Image, res.Image)
		}
	})

	t.Run("cancelled caller does not cancel shared computation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newCacheFixture(t, ctrl, nil, 4)
		img, data := decoded(4, 4, color.NRGBA{R: 3, A: 255})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f.capability.EXPECT().Remove(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, src image.Image) (image.Image, error) {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				return cutout(src), nil
			})

		_, err := f.cache.Remove(ctx, data, img)
		assert.NoError(t, err)
	})
}

func TestCachedRemover_SharedStore(t *testing.T) {
	t.Run("serves from shared store without invoking capability", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		store := mocks.NewMockResultStore(ctrl)
		store.EXPECT().Name().Return("redis").AnyTimes()
		f := newCacheFixture(t, ctrl, store, 4)

		img, data := decoded(6, 6, color.NRGBA{R: 90, A: 255})
		stored := cutout(img.Image)

		store.EXPECT().Get(gomock.Any(), removal.Key(data)).Return(pngBytes(t, stored), nil)
		f.capability.EXPECT().Remove(gomock.Any(), gomock.Any()).Times(0)

		res, err := f.cache.Remove(context.Background(), data, img)

		require.NoError(t, err)
		assert.True(t, res.Cached)
		assert.Equal(t, stored.Pix, res.Image.Image.(*image.NRGBA).Pix)
		assert.Equal(t, 1, f.recorder.lookup("redis/hit"))

		again, err := f.cache.Remove(context.Background(), data, img)
		require.NoError(t, err)
		assert.Same(t, res.Image, again.Image)
	})

	t.Run("writes new results to shared store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		store := mocks.NewMockResultStore(ctrl)
		store.EXPECT().Name().Return("s3").AnyTimes()
		f := newCacheFixture(t, ctrl, store, 4)

		img, data := decoded(6, 6, color.NRGBA{G: 90, A: 255})
		key := removal.Key(data)

		store.EXPECT().Get(gomock.Any(), key).Return(nil, domain.ErrCacheMiss)
		f.capability.EXPECT().Remove(gomock.Any(), gomock.Any()).Return(cutout(img.Image), nil)
		store.EXPECT().Put(gomock.Any(), key, gomock.Any()).Return(nil)

		res, err := f.cache.Remove(context.Background(), data, img)

		require.NoError(t, err)
		assert.False(t, res.Cached)
		assert.Equal(t, 1, f.recorder.lookup("s3/miss"))
	})

	t.Run("shared store errors degrade to a miss", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		store := mocks.NewMockResultStore(ctrl)
		store.EXPECT().Name().Return("redis").AnyTimes()
		f := newCacheFixture(t, ctrl, store, 4)

		img, data := decoded(6, 6, color.NRGBA{B: 90, A: 255})

		store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
		f.capability.EXPECT().Remove(gomock.Any(), gomock.Any()).Return(cutout(img.Image), nil)
		store.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

		res, err := f.cache.Remove(context.Background(), data, img)

		require.NoError(t, err)
		assert.NotNil(t, res.Image)
		assert.Equal(t, 1, f.recorder.lookup("redis/error"))
	})

	t.Run("corrupt shared entry is recomputed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		store := mocks.NewMockResultStore(ctrl)
		store.EXPECT().Name().Return("redis").AnyTimes()
		f := newCacheFixture(t, ctrl, store, 4)

		img, data := decoded(6, 6, color.NRGBA{R: 1, G: 1, A: 255})

		store.EXPECT().Get(gomock.Any(), gomock.Any()).Return([]byte("garbage"), nil)
		f.capability.EXPECT().Remove(gomock.Any(), gomock.Any()).Return(cutout(img.Image), nil)
		store.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		_, err := f.cache.Remove(context.Background(), data, img)

		require.NoError(t, err)
	})
}

func TestNewCachedRemover_RejectsZeroCapacity(t *testing.T) {
	_, err := removal.NewCachedRemover(removal.NewAdapter(nil, nil, nil), storage.NewImageCodec(), nil, 0, nil, nil)

	assert.Error(t, err)
}
