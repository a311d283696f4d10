// Package explorer holds the explorer's view state: listing snapshots, item
// classification, thumbnail resolution and the scroll/selection/dialog state
// the renderer reads.
package explorer

import (
	"encoding/json"
	"strings"

	"github.com/justyntemme/orbit/internal/rpc"
)

// Item is one row of a listing: either a *Path or an *Object.
type Item interface {
	ItemID() int
	Extension() string
	// CasID is the content address, empty for directories and unhashed files.
	CasID() string
	isItem()
}

// Object is content known to the library by its content address.
type Object struct {
	ID           int
	Cas          string
	Ext          string
	Kind         ObjectKind
	Size         int64
	HasThumbnail bool // last backend-confirmed state
}

func (o *Object) ItemID() int       { return o.ID }
func (o *Object) Extension() string { return o.Ext }
func (o *Object) CasID() string     { return o.Cas }
func (*Object) isItem()             {}

// Path is a filesystem entry inside a location.
type Path struct {
	ID               int
	Name             string
	MaterializedPath string
	Ext              string
	IsDir            bool
	Size             int64
	Cas              string
	Object           *Object // nil until the file is hashed
}

func (p *Path) ItemID() int       { return p.ID }
func (p *Path) Extension() string { return p.Ext }

// CasID prefers the linked object's address.
func (p *Path) CasID() string {
	if p.Object != nil && p.Object.Cas != "" {
		return p.Object.Cas
	}
	return p.Cas
}
func (*Path) isItem() {}

// Name returns a display name for any item.
func Name(it Item) string {
	switch v := it.(type) {
	case *Path:
		if v.Name != "" {
			return v.Name
		}
		return v.MaterializedPath
	case *Object:
		if v.Ext != "" {
			return v.Cas + "." + v.Ext
		}
		return v.Cas
	}
	return ""
}

// IsDir reports whether it is a directory path.
func IsDir(it Item) bool {
	p, ok := it.(*Path)
	return ok && p.IsDir
}

// Listing is a snapshot of a directory or query result.
type Listing struct {
	Items []Item
	// Context describes where the listing came from; opaque to the core.
	Context json.RawMessage
}

// Len returns the number of items.
func (l Listing) Len() int { return len(l.Items) }

// At returns item i, or false when i is out of range for this snapshot.
func (l Listing) At(i int) (Item, bool) {
	if i < 0 || i >= len(l.Items) {
		return nil, false
	}
	return l.Items[i], true
}

// ListingFromWire converts a backend snapshot. Rows with an unknown tag are skipped.
func ListingFromWire(data rpc.ExplorerData) Listing {
	items := make([]Item, 0, len(data.Items))
	for _, w := range data.Items {
		switch {
		case w.Type == "Path" && w.Path != nil:
			items = append(items, pathFromWire(w.Path))
		case w.Type == "Object" && w.Object != nil:
			items = append(items, objectFromWire(w.Object))
		}
	}
	return Listing{Items: items, Context: data.Context}
}

func objectFromWire(o *rpc.ObjectWire) *Object {
	return &Object{
		ID:           o.ID,
		Cas:          o.CasID,
		Ext:          normalizeExt(o.Extension),
		Kind:         ObjectKind(o.Kind),
		Size:         o.Size,
		HasThumbnail: o.HasThumbnail,
	}
}

func pathFromWire(p *rpc.PathWire) *Path {
	out := &Path{
		ID:               p.ID,
		Name:             p.Name,
		MaterializedPath: p.MaterializedPath,
		Ext:              normalizeExt(p.Extension),
		IsDir:            p.IsDir,
		Size:             p.Size,
		Cas:              p.CasID,
	}
	if p.Object != nil {
		out.Object = objectFromWire(p.Object)
	}
	return out
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
