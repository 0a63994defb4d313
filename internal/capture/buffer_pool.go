package capture

import (
	"image"
	"sync"
)

// ImagePool recycles *image.RGBA buffers by size. Every step of a run
// downsizes into the same target, so in practice one buffer circulates.
type ImagePool struct {
	mu    sync.Mutex
	pools map[image.Point]*sync.Pool
}

var framePool = NewImagePool()

func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Point]*sync.Pool)}
}

// GetImage returns a buffer with bounds rect from the shared pool.
func GetImage(rect image.Rectangle) *image.RGBA {
	return framePool.Get(rect)
}

// PutImage hands a buffer from GetImage back to the shared pool.
func PutImage(img *image.RGBA) {
	framePool.Put(img)
}

func (p *ImagePool) pool(size image.Point) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sp, ok := p.pools[size]
	if !ok {
		sp = &sync.Pool{
			New: func() any {
				return image.NewRGBA(image.Rectangle{Max: size})
			},
		}
		p.pools[size] = sp
	}
	return sp
}

func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	img := p.pool(rect.Size()).Get().(*image.RGBA)
	img.Rect = rect
	return img
}

func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.pool(img.Rect.Size()).Put(img)
}
