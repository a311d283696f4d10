package explorer

// Availability answers whether a content address has a ready thumbnail
// announced by a push event. *thumbs.Cache implements it.
type Availability interface {
	Has(casID string) bool
}

// URLResolver maps a content address to a thumbnail URL, or "" when the host
// cannot serve one.
type URLResolver interface {
	ThumbnailURL(casID string) string
}

// HasThumbnail resolves whether it should show a thumbnail. Directories never
// do. Otherwise the snapshot's has_thumbnail is trusted first and the push
// cache is the fallback, since the snapshot may predate generation.
func HasThumbnail(it Item, cache Availability) bool {
	switch v := it.(type) {
	case *Path:
		if v.IsDir {
			return false
		}
		cas := v.CasID()
		if cas == "" {
			return false
		}
		if v.Object != nil && v.Object.HasThumbnail {
			return true
		}
		return cache != nil && cache.Has(cas)
	case *Object:
		if v.Cas == "" {
			return false
		}
		return v.HasThumbnail || (cache != nil && cache.Has(v.Cas))
	}
	return false
}

// ThumbSource says what a row renders in its thumbnail slot.
type ThumbSource int

const (
	ThumbGeneric   ThumbSource = iota // generic file icon
	ThumbImage                        // URL
	ThumbFolder                       // directory icon
	ThumbKind                         // kind icon (video, zip)
	ThumbExtension                    // extension icon
)

func (s ThumbSource) String() string {
	switch s {
	case ThumbImage:
		return "image"
	case ThumbFolder:
		return "folder"
	case ThumbKind:
		return "kind"
	case ThumbExtension:
		return "extension"
	default:
		return "generic"
	}
}

// Thumb is the resolved thumbnail slot of one row.
type Thumb struct {
	Source ThumbSource
	URL    string // ThumbImage only
	Icon   string // icon name for the icon sources
}

// ResolveThumb composes thumbnail availability with the host's URL
// resolution. An image is shown only when both agree; otherwise the fallback
// order is folder, kind icon, extension icon, generic file.
func ResolveThumb(it Item, cache Availability, urls URLResolver) Thumb {
	if IsDir(it) {
		return Thumb{Source: ThumbFolder, Icon: "folder"}
	}

	if HasThumbnail(it, cache) && urls != nil {
		if url := urls.ThumbnailURL(it.CasID()); url != "" {
			return Thumb{Source: ThumbImage, URL: url}
		}
	}

	switch ItemKind(it) {
	case KindVideo:
		return Thumb{Source: ThumbKind, Icon: "video"}
	case KindArchive:
		return Thumb{Source: ThumbKind, Icon: "zip"}
	}

	if ext := it.Extension(); HasExtensionIcon(ext) {
		return Thumb{Source: ThumbExtension, Icon: ext}
	}
	return Thumb{Source: ThumbGeneric, Icon: "file"}
}
