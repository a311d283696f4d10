// Package platform is the host integration the explorer is given: thumbnail
// URLs, opening paths and links, the directory picker and devtools.
package platform

import (
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/justyntemme/orbit/internal/debug"
)

// OS names as reported by Platform.OS.
const (
	OSLinux   = "linux"
	OSWindows = "windows"
	OSMacOS   = "macOS"
	OSUnknown = "unknown"
)

// Platform is implemented per host. Every method may return an empty result;
// none of them is retried.
type Platform interface {
	ThumbnailURL(casID string) string
	OpenPath(path string) error
	OpenLink(link string) error
	OpenFilePickerDialog() (string, error)
	OS() string
	ShowDevtools()
}

// Desktop is the Platform for desktop builds.
type Desktop struct {
	// ThumbDir holds generated thumbnails named <cas id>.jpg.
	ThumbDir string
	// Scheme is "file" for file:// URLs into ThumbDir, or "orbit" for
	// orbit://thumbnail/<cas id> served by the host.
	Scheme string
}

// NewDesktop returns a desktop platform.
func NewDesktop(thumbDir, scheme string) *Desktop {
	return &Desktop{ThumbDir: thumbDir, Scheme: scheme}
}

// ThumbnailPath is where the thumbnail of casID lives under dir.
func ThumbnailPath(dir, casID string) string {
	return filepath.Join(dir, casID+".jpg")
}

// ThumbnailURL returns the URL of casID's thumbnail, or "" when none can be
// served. With the file scheme the file must exist.
func (d *Desktop) ThumbnailURL(casID string) string {
	if casID == "" {
		return ""
	}
	switch d.Scheme {
	case "orbit":
		return "orbit://thumbnail/" + url.PathEscape(casID)
	default:
		p := ThumbnailPath(d.ThumbDir, casID)
		if _, err := os.Stat(p); err != nil {
			return ""
		}
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String()
	}
}

// ThumbnailFile maps a URL returned by ThumbnailURL back to the file on disk.
func (d *Desktop) ThumbnailFile(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch {
	case u.Scheme == "file":
		return filepath.FromSlash(u.Path), true
	case u.Scheme == "orbit" && u.Host == "thumbnail":
		cas := strings.TrimPrefix(u.Path, "/")
		if cas == "" || strings.ContainsAny(cas, `/\`) {
			return "", false
		}
		return ThumbnailPath(d.ThumbDir, cas), true
	}
	return "", false
}

// OpenPath opens path with the default application.
func (d *Desktop) OpenPath(path string) error {
	debug.Log(debug.UI, "open path %s", path)
	return platformOpen(path)
}

// OpenLink opens link in the default browser.
func (d *Desktop) OpenLink(link string) error {
	debug.Log(debug.UI, "open link %s", link)
	return platformOpen(link)
}

// OpenFilePickerDialog asks the user for a directory. An empty path means
// the dialog was dismissed or is unavailable.
func (d *Desktop) OpenFilePickerDialog() (string, error) {
	return platformPickDirectory()
}

// OS returns the host OS name.
func (d *Desktop) OS() string {
	return osName(runtime.GOOS)
}

func osName(goos string) string {
	switch goos {
	case "linux":
		return OSLinux
	case "windows":
		return OSWindows
	case "darwin":
		return OSMacOS
	default:
		return OSUnknown
	}
}

// ShowDevtools turns on every debug category. Release builds ignore it.
func (d *Desktop) ShowDevtools() {
	debug.SetCategories(map[debug.Category]bool{
		debug.APP: true, debug.RPC: true, debug.THUMB: true, debug.EXPLORER: true,
		debug.VAULT: true, debug.STORE: true, debug.UI: true, debug.BACKEND: true,
		debug.RPC_WIRE: true,
	})
}
