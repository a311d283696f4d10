package ui

import (
	"container/list"
	"image"
	_ "image/jpeg"
	"os"
	"sync"

	"gioui.org/op/paint"
	"golang.org/x/image/draw"

	"github.com/justyntemme/orbit/internal/debug"
)

// ImageCache holds decoded thumbnail files for the file list, least recently
// drawn first out. Files are decoded by a small pool of loaders so the frame
// loop never touches the disk.
type ImageCache struct {
	mu     sync.Mutex
	byPath map[string]*list.Element // value: *decodedImage
	recent *list.List
	queued map[string]struct{}
	// failed remembers files that could not be decoded until Forget
	failed map[string]struct{}

	capacity int
	edge     int

	jobs   chan string
	quit   chan struct{}
	wg     sync.WaitGroup
	closer sync.Once

	onLoad func()
}

type decodedImage struct {
	path string
	op   paint.ImageOp
	size image.Point
}

// NewImageCache keeps up to capacity images, each fitted into an edge×edge
// box, decoded by workers goroutines. onLoad runs after every decode.
func NewImageCache(capacity, edge, workers int, onLoad func()) *ImageCache {
	if workers < 1 {
		workers = 1
	}
	c := &ImageCache{
		byPath:   make(map[string]*list.Element),
		recent:   list.New(),
		queued:   make(map[string]struct{}),
		failed:   make(map[string]struct{}),
		capacity: capacity,
		edge:     edge,
		jobs:     make(chan string, 64),
		quit:     make(chan struct{}),
		onLoad:   onLoad,
	}
	c.wg.Add(workers)
	for range workers {
		go c.loader()
	}
	return c
}

// Lookup returns the decoded image for path and its source dimensions.
func (c *ImageCache) Lookup(path string) (paint.ImageOp, image.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.byPath[path]
	if !ok {
		return paint.ImageOp{}, image.Point{}, false
	}
	c.recent.MoveToFront(el)
	img := el.Value.(*decodedImage)
	return img.op, img.size, true
}

// Want asks for path to be decoded. Cached, queued and failed paths are
// ignored, as are requests that find the queue full; the next frame asks again.
func (c *ImageCache) Want(path string) {
	c.mu.Lock()
	_, cached := c.byPath[path]
	_, queued := c.queued[path]
	_, failed := c.failed[path]
	if cached || queued || failed {
		c.mu.Unlock()
		return
	}
	c.queued[path] = struct{}{}
	c.mu.Unlock()

	select {
	case c.jobs <- path:
	default:
		c.mu.Lock()
		delete(c.queued, path)
		c.mu.Unlock()
	}
}

// Forget drops path so the next Want decodes it again.
func (c *ImageCache) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.byPath[path]; ok {
		c.recent.Remove(el)
		delete(c.byPath, path)
	}
	delete(c.failed, path)
}

// Len is the number of decoded images held.
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recent.Len()
}

// Close stops the loaders and waits for them.
func (c *ImageCache) Close() {
	c.closer.Do(func() {
		close(c.quit)
		c.wg.Wait()
	})
}

func (c *ImageCache) loader() {
	defer c.wg.Done()
	for {
		select {
		case <-c.quit:
			return
		case path := <-c.jobs:
			c.load(path)
		}
	}
}

func (c *ImageCache) load(path string) {
	img, err := decodeFile(path)

	c.mu.Lock()
	delete(c.queued, path)
	if err != nil {
		c.failed[path] = struct{}{}
		c.mu.Unlock()
		debug.Log(debug.UI, "image cache: %s: %v", path, err)
		return
	}
	c.insert(&decodedImage{
		path: path,
		op:   paint.NewImageOp(fitWithin(img, c.edge)),
		size: img.Bounds().Size(),
	})
	c.mu.Unlock()

	if c.onLoad != nil {
		c.onLoad()
	}
}

// insert adds img as most recent, evicting from the tail. Caller holds mu.
func (c *ImageCache) insert(img *decodedImage) {
	if el, ok := c.byPath[img.path]; ok {
		el.Value = img
		c.recent.MoveToFront(el)
		return
	}
	for c.recent.Len() >= c.capacity && c.recent.Len() > 0 {
		tail := c.recent.Back()
		delete(c.byPath, tail.Value.(*decodedImage).path)
		c.recent.Remove(tail)
	}
	c.byPath[img.path] = c.recent.PushFront(img)
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// fitWithin scales src down, keeping its aspect ratio, so neither side
// exceeds edge. Smaller images are returned as is.
func fitWithin(src image.Image, edge int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if edge <= 0 || (w <= edge && h <= edge) {
		return src
	}
	if w >= h {
		w, h = edge, max(1, h*edge/w)
	} else {
		w, h = max(1, w*edge/h), edge
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
