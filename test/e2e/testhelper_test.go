package e2e_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/bg-remover/internal/adapter/handler"
	"github.com/marcos-nsantos/bg-remover/internal/adapter/remover"
	adapterstorage "github.com/marcos-nsantos/bg-remover/internal/adapter/storage"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/cache"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/config"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/observability"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/rembg"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/server"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/storage"
	"github.com/marcos-nsantos/bg-remover/internal/usecase/removal"
)

const apiBasePath = "/api/v1"

// fakeRembg mimics the rembg HTTP API: it clears alpha on the right half of the upload.
type fakeRembg struct {
	server *httptest.Server
	calls  atomic.Int32
	status atomic.Int32
}

func newFakeRembg(t *testing.T) *fakeRembg {
	t.Helper()

	f := &fakeRembg{}
	f.status.Store(http.StatusOK)
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)

		if status := int(f.status.Load()); status != http.StatusOK {
			http.Error(w, "model unavailable", status)
			return
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		src, err := png.Decode(file)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		b := src.Bounds()
		out := image.NewNRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
				if x-b.Min.X >= b.Dx()/2 {
					c.A = 0
				}
				out.SetNRGBA(x, y, c)
			}
		}

		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, out)
	}))
	t.Cleanup(f.server.Close)

	return f
}

type appOptions struct {
	rembg *fakeRembg
	store adapterstorage.ResultStore
}

type TestApp struct {
	Server     *httptest.Server
	BaseURL    string
	httpClient *http.Client
}

func setupTestApp(t *testing.T, opts appOptions) *TestApp {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping e2e test in short mode")
	}

	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	var capability remover.Remover
	if opts.rembg != nil {
		httpRemover, err := rembg.NewHTTPRemover(config.RemoverConfig{
			URL:                 opts.rembg.server.URL,
			Timeout:             5 * time.Second,
			BreakerTimeout:      time.Minute,
			BreakerMinRequests:  5,
			BreakerFailureRatio: 0.5,
		}, logger)
		require.NoError(t, err)
		capability = httpRemover
	}

	codec := storage.NewImageCodec()
	adapter := removal.NewAdapter(capability, metrics, logger)
	cachedRemover, err := removal.NewCachedRemover(adapter, codec, opts.store, 8, metrics, logger)
	require.NoError(t, err)
	removalSvc := removal.NewService(codec, adapter, cachedRemover)

	router := server.NewRouter(server.RouterConfig{
		RemovalHandler: handler.NewRemovalHandler(removalSvc, handler.DefaultMaxUploadSize),
		Metrics:        metrics,
		CORSOrigins:    []string{"*"},
		Logger:         logger,
		Environment:    "test",
	})

	ts := httptest.NewServer(router.Engine())
	t.Cleanup(ts.Close)

	return &TestApp{
		Server:  ts,
		BaseURL: ts.URL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func setupRedis(t *testing.T) *goredis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping e2e test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client, err := cache.NewRedisClient(ctx, config.RedisConfig{Host: host, Port: port.Int()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client
}

func (app *TestApp) upload(path, filename string, data []byte, query string) (*http.Response, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	url := app.BaseURL + apiBasePath + path
	if query != "" {
		url += "?" + query
	}

	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return app.httpClient.Do(req)
}

func (app *TestApp) get(path string) (*http.Response, error) {
	return app.httpClient.Get(app.BaseURL + path)
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return body
}

func samplePNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uniqueColor(seed int) color.NRGBA {
	return color.NRGBA{R: uint8(seed), G: uint8(seed >> 8), B: 128, A: 255}
}

func attachmentName(filename string) string {
	return fmt.Sprintf("attachment; filename=%s", filename)
}
