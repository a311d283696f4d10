package localbackend

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"

	// Decoders for thumbnail sources
	_ "image/gif"
	_ "image/png"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/justyntemme/orbit/internal/debug"
	"github.com/justyntemme/orbit/internal/logging"
	"github.com/justyntemme/orbit/internal/metrics"
	"github.com/justyntemme/orbit/internal/platform"
)

var thumbnailExts = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true,
	"webp": true, "bmp": true, "tiff": true,
}

func thumbnailable(ext string) bool { return thumbnailExts[ext] }

type thumbJob struct {
	path string
	cas  string
}

// thumbnailer renders thumbnails on a fixed pool of workers. Each finished
// thumbnail is reported through done.
type thumbnailer struct {
	dir       string
	maxPixels int
	workers   int
	done      func(cas string)

	// Pending load requests
	pendingMu sync.Mutex
	pending   map[string]bool // cas ids queued or rendering
	jobs      chan thumbJob
	wg        sync.WaitGroup
}

func newThumbnailer(dir string, maxPixels, workers int, done func(cas string)) *thumbnailer {
	if workers < 1 {
		workers = 1
	}
	return &thumbnailer{
		dir:       dir,
		maxPixels: maxPixels,
		workers:   workers,
		done:      done,
		pending:   make(map[string]bool),
		jobs:      make(chan thumbJob, 256),
	}
}

// Start runs the workers until ctx is cancelled.
func (t *thumbnailer) Start(ctx context.Context) {
	for i := 0; i < t.workers; i++ {
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-t.jobs:
					t.run(job)
				}
			}
		}()
	}
}

// Wait blocks until every worker has returned.
func (t *thumbnailer) Wait() { t.wg.Wait() }

// Request queues a job. Duplicates of a queued cas id and requests that do
// not fit the queue are dropped.
func (t *thumbnailer) Request(path, cas string) {
	t.pendingMu.Lock()
	if t.pending[cas] {
		t.pendingMu.Unlock()
		return
	}
	t.pending[cas] = true
	t.pendingMu.Unlock()

	select {
	case t.jobs <- thumbJob{path: path, cas: cas}:
		metrics.RecordThumbnailJob("queued")
	default:
		t.pendingMu.Lock()
		delete(t.pending, cas)
		t.pendingMu.Unlock()
		metrics.RecordThumbnailJob("dropped")
	}
}

func (t *thumbnailer) run(job thumbJob) {
	defer func() {
		t.pendingMu.Lock()
		delete(t.pending, job.cas)
		t.pendingMu.Unlock()
	}()

	if err := t.render(job); err != nil {
		metrics.RecordThumbnailJob("failed")
		logging.Named("thumbnailer").Warn("thumbnail failed", zap.String("path", job.path), zap.Error(err))
		return
	}
	metrics.RecordThumbnailJob("done")
	t.done(job.cas)
}

// render decodes the source, scales it and writes <dir>/<cas>.jpg. Existing
// thumbnails are reused.
func (t *thumbnailer) render(job thumbJob) error {
	out := platform.ThumbnailPath(t.dir, job.cas)
	if _, err := os.Stat(out); err == nil {
		debug.Log(debug.BACKEND, "thumbnailer: reusing %s", out)
		return nil
	}

	file, err := os.Open(job.path)
	if err != nil {
		return err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	thumb := scaleThumbnail(img, t.maxPixels)

	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(t.dir, job.cas+".*.tmp")
	if err != nil {
		return err
	}
	if err := jpeg.Encode(tmp, thumb, &jpeg.Options{Quality: 80}); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	b := img.Bounds()
	debug.Log(debug.BACKEND, "thumbnailer: wrote %s (original %dx%d, thumb %dx%d)",
		filepath.Base(out), b.Dx(), b.Dy(), thumb.Bounds().Dx(), thumb.Bounds().Dy())
	return nil
}

// scaleThumbnail scales an image down to fit within maxPixels.
func scaleThumbnail(src image.Image, maxPixels int) image.Image {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxPixels && height <= maxPixels {
		return src
	}

	var scale float64
	if width > height {
		scale = float64(maxPixels) / float64(width)
	} else {
		scale = float64(maxPixels) / float64(height)
	}

	newWidth := max(1, int(float64(width)*scale))
	newHeight := max(1, int(float64(height)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
