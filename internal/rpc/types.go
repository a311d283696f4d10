package rpc

import "encoding/json"

// Location is one indexed location of a library.
type Location struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
}

// ExplorerDataArgs selects a directory inside a location.
type ExplorerDataArgs struct {
	LocationID int    `json:"location_id"`
	Path       string `json:"path"`
}

// ExplorerData is the wire form of a listing snapshot.
type ExplorerData struct {
	Context json.RawMessage `json:"context"`
	Items   []ItemWire      `json:"items"`
}

// ItemWire is a tagged union: Type is "Path" or "Object" and exactly the
// matching field is set.
type ItemWire struct {
	Type   string      `json:"type"`
	Path   *PathWire   `json:"path,omitempty"`
	Object *ObjectWire `json:"object,omitempty"`
}

// PathWire is a file path row.
type PathWire struct {
	ID               int         `json:"id"`
	Name             string      `json:"name"`
	MaterializedPath string      `json:"materialized_path"`
	Extension        string      `json:"extension,omitempty"`
	IsDir            bool        `json:"is_dir"`
	Size             int64       `json:"size,omitempty"`
	CasID            string      `json:"cas_id,omitempty"`
	Object           *ObjectWire `json:"object,omitempty"`
}

// ObjectWire is a content-identified object.
type ObjectWire struct {
	ID           int    `json:"id"`
	CasID        string `json:"cas_id,omitempty"`
	Extension    string `json:"extension,omitempty"`
	Kind         int    `json:"kind"`
	Size         int64  `json:"size,omitempty"`
	HasThumbnail bool   `json:"has_thumbnail"`
}

// Credentials is the argument of keys.setMasterPassword.
type Credentials struct {
	Password  string `json:"password"`
	SecretKey string `json:"secret_key"`
}
