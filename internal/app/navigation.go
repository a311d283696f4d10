package app

import (
	"path"
	"strings"
)

const maxHistorySize = 100

// Target is a directory inside a location. Path is slash-separated and
// rooted at the location ("/" is the location root).
type Target struct {
	LocationID int
	Path       string
}

// Navigator keeps the back/forward history of visited directories.
type Navigator struct {
	History      []Target
	HistoryIndex int
}

func NewNavigator() *Navigator {
	return &Navigator{
		History:      make([]Target, 0, maxHistorySize),
		HistoryIndex: -1,
	}
}

// Current returns the directory being shown.
func (n *Navigator) Current() (Target, bool) {
	if n.HistoryIndex < 0 || n.HistoryIndex >= len(n.History) {
		return Target{}, false
	}
	return n.History[n.HistoryIndex], true
}

// Navigate adds t to history, dropping any forward entries.
func (n *Navigator) Navigate(t Target) {
	t.Path = cleanRel(t.Path)

	// Truncate forward history if we're not at the end
	if n.HistoryIndex >= 0 && n.HistoryIndex < len(n.History)-1 {
		n.History = n.History[:n.HistoryIndex+1]
	}
	n.History = append(n.History, t)
	n.HistoryIndex = len(n.History) - 1

	// Limit history size to prevent unbounded memory growth
	if len(n.History) > maxHistorySize {
		excess := len(n.History) - maxHistorySize
		n.History = n.History[excess:]
		n.HistoryIndex -= excess
		if n.HistoryIndex < 0 {
			n.HistoryIndex = 0
		}
	}
}

// GoBack moves to the parent directory. The parent is reused from history
// when it is the previous entry, otherwise it is inserted before the current one.
func (n *Navigator) GoBack() (Target, bool) {
	cur, ok := n.Current()
	if !ok || cur.Path == "/" {
		return Target{}, false
	}
	parent := Target{LocationID: cur.LocationID, Path: parentRel(cur.Path)}

	if n.HistoryIndex > 0 && n.History[n.HistoryIndex-1] == parent {
		n.HistoryIndex--
	} else {
		n.History = append(n.History[:n.HistoryIndex], append([]Target{parent}, n.History[n.HistoryIndex:]...)...)
	}
	return parent, true
}

// GoForward moves forward in history.
func (n *Navigator) GoForward() (Target, bool) {
	if n.HistoryIndex < len(n.History)-1 {
		n.HistoryIndex++
		return n.History[n.HistoryIndex], true
	}
	return Target{}, false
}

// CanBack reports whether the current directory has a parent in its location.
func (n *Navigator) CanBack() bool {
	cur, ok := n.Current()
	return ok && cur.Path != "/"
}

func (n *Navigator) CanForward() bool {
	return n.HistoryIndex < len(n.History)-1
}

// cleanRel normalizes a location-relative path to a rooted slash path.
// Backslashes are treated as separators.
func cleanRel(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return path.Clean("/" + strings.TrimPrefix(p, "/"))
}

func parentRel(p string) string {
	return path.Dir(cleanRel(p))
}

func childRel(dir, name string) string {
	return cleanRel(path.Join(cleanRel(dir), name))
}
