package localbackend

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/justyntemme/orbit/internal/config"
	"github.com/justyntemme/orbit/internal/debug"
	"github.com/justyntemme/orbit/internal/explorer"
	"github.com/justyntemme/orbit/internal/rpc"
)

var (
	errNoLocation  = errors.New("location not found")
	errOutsideRoot = errors.New("path escapes location")
)

// entry is one indexed file or directory.
type entry struct {
	name    string
	path    string
	isDir   bool
	size    int64
	modTime time.Time
}

// fileRecord is what the index remembers about a file between listings.
type fileRecord struct {
	id      int
	cas     string
	size    int64
	modTime time.Time
}

// index assigns stable ids to paths and objects and derives cas ids.
type index struct {
	mu        sync.Mutex
	locations []config.LocationConfig
	files     map[string]*fileRecord // absolute path -> record
	objects   map[string]int         // cas id -> object id
	ready     map[string]bool        // cas ids with a thumbnail on disk
	nextPath  int
	nextObj   int
}

func newIndex(locations []config.LocationConfig) *index {
	return &index{
		locations: locations,
		files:     make(map[string]*fileRecord),
		objects:   make(map[string]int),
		ready:     make(map[string]bool),
	}
}

// Locations lists configured locations with 1-based ids.
func (x *index) Locations() []rpc.Location {
	locs := x.snapshotLocations()
	out := make([]rpc.Location, 0, len(locs))
	for i, l := range locs {
		out = append(out, rpc.Location{ID: i + 1, Name: l.Name, Path: l.Path})
	}
	return out
}

func (x *index) snapshotLocations() []config.LocationConfig {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]config.LocationConfig(nil), x.locations...)
}

// addLocation appends a location and returns its id.
func (x *index) addLocation(loc config.LocationConfig) rpc.Location {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.locations = append(x.locations, loc)
	return rpc.Location{ID: len(x.locations), Name: loc.Name, Path: loc.Path}
}

// resolve maps a location id and location-relative path to a directory.
func (x *index) resolve(locationID int, rel string) (root, dir string, err error) {
	locs := x.snapshotLocations()
	if locationID < 1 || locationID > len(locs) {
		return "", "", errNoLocation
	}
	root = filepath.Clean(locs[locationID-1].Path)
	dir = filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
	r, err := filepath.Rel(root, dir)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", "", errOutsideRoot
	}
	return root, dir, nil
}

// fetchDir lists the direct children of path.
func fetchDir(path string) ([]entry, error) {
	debug.Log(debug.BACKEND, "fetchDir: reading %q", path)

	var result []entry
	var mu sync.Mutex

	conf := &fastwalk.Config{
		Follow: true, // Follow symlinks to get target info
	}

	pathLen := len(path)

	err := fastwalk.Walk(conf, path, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}
		if fullPath == path {
			return nil
		}

		relStart := pathLen
		if relStart < len(fullPath) && (fullPath[relStart] == '/' || fullPath[relStart] == '\\') {
			relStart++
		}
		if strings.ContainsAny(fullPath[relStart:], "/\\") {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			// Broken symlink
			info, err = os.Lstat(fullPath)
			if err != nil {
				return nil
			}
		}

		mu.Lock()
		result = append(result, entry{
			name:    d.Name(),
			path:    fullPath,
			isDir:   info.IsDir(),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
		mu.Unlock()

		if d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// fastwalk visits in parallel; directories first, then by name
	sort.Slice(result, func(i, j int) bool {
		if result[i].isDir != result[j].isDir {
			return result[i].isDir
		}
		return strings.ToLower(result[i].name) < strings.ToLower(result[j].name)
	})
	return result, nil
}

// scan walks every location and calls fn for each regular file.
func (x *index) scan(fn func(path string, size int64, modTime time.Time)) error {
	conf := &fastwalk.Config{Follow: false}
	for _, loc := range x.snapshotLocations() {
		err := fastwalk.Walk(conf, loc.Path, func(fullPath string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if fullPath != loc.Path && strings.HasPrefix(d.Name(), ".") {
					return fastwalk.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			fn(fullPath, info.Size(), info.ModTime())
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// record returns the cached record for a file, rehashing it when its size
// or modification time changed.
func (x *index) record(path string, size int64, modTime time.Time) (*fileRecord, error) {
	x.mu.Lock()
	rec, ok := x.files[path]
	if ok && rec.size == size && rec.modTime.Equal(modTime) {
		x.mu.Unlock()
		return rec, nil
	}
	x.mu.Unlock()

	cas, err := casID(path, size)
	if err != nil {
		return nil, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if rec == nil {
		x.nextPath++
		rec = &fileRecord{id: x.nextPath}
		x.files[path] = rec
	}
	rec.cas, rec.size, rec.modTime = cas, size, modTime
	if _, ok := x.objects[cas]; !ok {
		x.nextObj++
		x.objects[cas] = x.nextObj
	}
	return rec, nil
}

// dirID returns the path id of a directory.
func (x *index) dirID(path string) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	rec, ok := x.files[path]
	if !ok {
		x.nextPath++
		rec = &fileRecord{id: x.nextPath}
		x.files[path] = rec
	}
	return rec.id
}

func (x *index) markReady(cas string) {
	x.mu.Lock()
	x.ready[cas] = true
	x.mu.Unlock()
}

func (x *index) isReady(cas string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.ready[cas]
}

func (x *index) objectID(cas string) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.objects[cas]
}

// explorerData builds the listing of one directory. want is called for
// every image file whose thumbnail is not ready yet.
func (x *index) explorerData(args rpc.ExplorerDataArgs, want func(path, cas string)) (rpc.ExplorerData, error) {
	root, dir, err := x.resolve(args.LocationID, args.Path)
	if err != nil {
		return rpc.ExplorerData{}, err
	}
	entries, err := fetchDir(dir)
	if err != nil {
		return rpc.ExplorerData{}, err
	}

	items := make([]rpc.ItemWire, 0, len(entries))
	for _, e := range entries {
		rel, _ := filepath.Rel(root, e.path)
		p := &rpc.PathWire{
			Name:             e.name,
			MaterializedPath: "/" + filepath.ToSlash(rel),
			IsDir:            e.isDir,
		}
		if e.isDir {
			p.ID = x.dirID(e.path)
			items = append(items, rpc.ItemWire{Type: "Path", Path: p})
			continue
		}

		p.Size = e.size
		p.Extension = extOf(e.name)
		rec, err := x.record(e.path, e.size, e.modTime)
		if err != nil {
			debug.Log(debug.BACKEND, "explorerData: skipping cas for %q: %v", e.path, err)
			x.mu.Lock()
			x.nextPath++
			p.ID = x.nextPath
			x.mu.Unlock()
			items = append(items, rpc.ItemWire{Type: "Path", Path: p})
			continue
		}
		p.ID = rec.id
		p.CasID = rec.cas

		kind := explorer.KindFromExtension(p.Extension)
		ready := x.isReady(rec.cas)
		p.Object = &rpc.ObjectWire{
			ID:           x.objectID(rec.cas),
			CasID:        rec.cas,
			Extension:    p.Extension,
			Kind:         int(kind),
			Size:         e.size,
			HasThumbnail: ready,
		}
		if !ready && thumbnailable(p.Extension) && want != nil {
			want(e.path, rec.cas)
		}
		items = append(items, rpc.ItemWire{Type: "Path", Path: p})
	}

	ctx, err := json.Marshal(args)
	if err != nil {
		return rpc.ExplorerData{}, err
	}
	return rpc.ExplorerData{Context: ctx, Items: items}, nil
}

func extOf(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}
