package explorer

// ObjectKind is the backend's coarse content classification.
type ObjectKind int

const (
	KindUnknown ObjectKind = iota
	KindDocument
	KindFolder
	KindText
	KindPackage
	KindImage
	KindAudio
	KindVideo
	KindArchive
	KindExecutable
	KindAlias
	KindEncrypted
	KindKey
)

func (k ObjectKind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindFolder:
		return "folder"
	case KindText:
		return "text"
	case KindPackage:
		return "package"
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	case KindArchive:
		return "archive"
	case KindExecutable:
		return "executable"
	case KindAlias:
		return "alias"
	case KindEncrypted:
		return "encrypted"
	case KindKey:
		return "key"
	default:
		return "unknown"
	}
}

var extensionKinds = map[string]ObjectKind{
	"jpg": KindImage, "jpeg": KindImage, "png": KindImage, "gif": KindImage,
	"webp": KindImage, "bmp": KindImage, "heic": KindImage, "tiff": KindImage,
	"mp4": KindVideo, "mov": KindVideo, "mkv": KindVideo, "avi": KindVideo, "webm": KindVideo,
	"mp3": KindAudio, "wav": KindAudio, "flac": KindAudio, "ogg": KindAudio, "m4a": KindAudio,
	"zip": KindArchive, "tar": KindArchive, "gz": KindArchive, "7z": KindArchive, "rar": KindArchive,
	"txt": KindText, "md": KindText, "log": KindText, "csv": KindText,
	"pdf": KindDocument, "doc": KindDocument, "docx": KindDocument, "odt": KindDocument,
	"exe": KindExecutable, "app": KindExecutable,
	"dmg": KindPackage, "deb": KindPackage, "rpm": KindPackage, "pkg": KindPackage,
	"bytes": KindEncrypted,
}

// KindFromExtension classifies an extension (with or without the dot).
func KindFromExtension(ext string) ObjectKind {
	return extensionKinds[normalizeExt(ext)]
}

// ItemKind returns the backend kind when known, else one derived from the
// extension. Directories are KindFolder.
func ItemKind(it Item) ObjectKind {
	switch v := it.(type) {
	case *Path:
		if v.IsDir {
			return KindFolder
		}
		if v.Object != nil && v.Object.Kind != KindUnknown {
			return v.Object.Kind
		}
		return KindFromExtension(v.Ext)
	case *Object:
		if v.Kind != KindUnknown {
			return v.Kind
		}
		return KindFromExtension(v.Ext)
	}
	return KindUnknown
}

// extensionIcons is the set of extensions with a dedicated icon asset.
var extensionIcons = map[string]bool{
	"c": true, "cpp": true, "css": true, "csv": true, "doc": true, "docx": true,
	"go": true, "html": true, "java": true, "js": true, "json": true, "md": true,
	"pdf": true, "ppt": true, "py": true, "rs": true, "sh": true, "sql": true,
	"svg": true, "toml": true, "ts": true, "tsx": true, "txt": true, "xls": true,
	"xlsx": true, "xml": true, "yaml": true, "yml": true,
}

// HasExtensionIcon reports whether ext has a dedicated icon.
func HasExtensionIcon(ext string) bool {
	return extensionIcons[normalizeExt(ext)]
}
