package grove

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// AssetProvider resolves path-like keys to textures and shaders. A nil result
// means the asset is absent; visuals that need it draw nothing.
type AssetProvider interface {
	Texture(key string) *ebiten.Image
	Shader(key string) *ebiten.Shader
}

// AssetCache is an in-memory AssetProvider. It is owned by the frame
// goroutine; the background loader never touches it directly.
type AssetCache struct {
	textures map[string]*ebiten.Image
	shaders  map[string]*ebiten.Shader
}

// NewAssetCache creates an empty cache.
func NewAssetCache() *AssetCache {
	return &AssetCache{
		textures: make(map[string]*ebiten.Image),
		shaders:  make(map[string]*ebiten.Shader),
	}
}

// Texture returns the texture stored under key, or nil.
func (c *AssetCache) Texture(key string) *ebiten.Image { return c.textures[key] }

// Shader returns the shader stored under key, or nil.
func (c *AssetCache) Shader(key string) *ebiten.Shader { return c.shaders[key] }

// SetTexture stores img under key, replacing any previous texture.
func (c *AssetCache) SetTexture(key string, img *ebiten.Image) { c.textures[key] = img }

// SetShader stores s under key, replacing any previous shader.
func (c *AssetCache) SetShader(key string, s *ebiten.Shader) { c.shaders[key] = s }

// Remove drops both the texture and the shader stored under key.
func (c *AssetCache) Remove(key string) {
	delete(c.textures, key)
	delete(c.shaders, key)
}

// Len returns the number of stored assets.
func (c *AssetCache) Len() int { return len(c.textures) + len(c.shaders) }

// LoadFunc produces an asset on the loader goroutine. It may return a
// decoded image.Image, an *ebiten.Image, or Kage source as []byte; GPU
// objects for the first and last are created when the frame adopts them.
type LoadFunc func(ctx context.Context) (any, error)

type assetRequest struct {
	key  string
	load LoadFunc
}

type assetResult struct {
	key   string
	value any
	err   error
}

// AssetLoader runs LoadFuncs on a single background goroutine. Requests and
// results travel through bounded channels; finished assets wait until the
// frame goroutine calls Adopt.
type AssetLoader struct {
	requests chan assetRequest
	results  chan assetResult
	cancel   context.CancelFunc
	done     chan struct{}

	mu     sync.Mutex
	closed bool

	log Logger
}

// NewAssetLoader starts the loader goroutine. It stops when ctx is canceled
// or Close is called. queue bounds both channels.
func NewAssetLoader(ctx context.Context, queue int, log Logger) *AssetLoader {
	if queue <= 0 {
		queue = 1
	}
	if log == nil {
		log = NewNopLogger()
	}
	ctx, cancel := context.WithCancel(ctx)
	l := &AssetLoader{
		requests: make(chan assetRequest, queue),
		results:  make(chan assetResult, queue),
		cancel:   cancel,
		done:     make(chan struct{}),
		log:      log,
	}
	go l.run(ctx)
	return l
}

func (l *AssetLoader) run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-l.requests:
			v, err := req.load(ctx)
			select {
			case l.results <- assetResult{key: req.key, value: v, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Request queues a load without blocking. It fails with ErrQueueFull when
// the request channel is full and ErrLoaderClosed after Close.
func (l *AssetLoader) Request(key string, load LoadFunc) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("grove: load %q: %w", key, ErrLoaderClosed)
	}
	select {
	case l.requests <- assetRequest{key: key, load: load}:
		return nil
	default:
		return fmt.Errorf("grove: load %q: %w", key, ErrQueueFull)
	}
}

// Adopt moves every finished asset into cache without blocking and returns
// the number adopted. Failed loads are logged and skipped.
func (l *AssetLoader) Adopt(cache *AssetCache) int {
	n := 0
	for {
		select {
		case res := <-l.results:
			if l.adopt(cache, res) {
				n++
			}
		default:
			return n
		}
	}
}

func (l *AssetLoader) adopt(cache *AssetCache, res assetResult) bool {
	if res.err != nil {
		l.log.Errorf("load asset %q: %v", res.key, res.err)
		return false
	}
	switch v := res.value.(type) {
	case *ebiten.Image:
		cache.SetTexture(res.key, v)
	case image.Image:
		cache.SetTexture(res.key, ebiten.NewImageFromImage(v))
	case *ebiten.Shader:
		cache.SetShader(res.key, v)
	case []byte:
		s, err := ebiten.NewShader(v)
		if err != nil {
			l.log.Errorf("compile shader %q: %v", res.key, err)
			return false
		}
		cache.SetShader(res.key, s)
	default:
		l.log.Errorf("load asset %q: unsupported type %T", res.key, res.value)
		return false
	}
	return true
}

// Close stops the loader goroutine and waits for it to exit. Pending
// requests are dropped. Safe to call more than once.
func (l *AssetLoader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()
	l.cancel()
	<-l.done
}

// LoadImageFile returns a LoadFunc decoding the image at path on the loader
// goroutine. PNG, JPEG, GIF, BMP, TIFF and WebP are recognized.
func LoadImageFile(path string) LoadFunc {
	return func(ctx context.Context) (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return img, nil
	}
}
