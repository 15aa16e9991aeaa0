package removal_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu       sync.Mutex
	lookups  map[string]int
	outcomes map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		lookups:  map[string]int{},
		outcomes: map[string]int{},
	}
}

func (r *fakeRecorder) CacheLookup(tier, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups[tier+"/"+result]++
}

func (r *fakeRecorder) RemovalObserved(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[outcome]++
}

func (r *fakeRecorder) lookup(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups[key]
}

func (r *fakeRecorder) outcome(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[key]
}

func opaqueImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// cutout keeps the left half of src and makes the right half transparent.
func cutout(src image.Image) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			if x >= b.Dx()/2 {
				c.A = 0
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
