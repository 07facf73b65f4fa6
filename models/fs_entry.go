package models

import (
	"encoding/json"
	"fmt"
)

// EntryKind is the closed set of remote directory entry kinds.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDirectory
)

func (k EntryKind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

func (k EntryKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *EntryKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "file":
		*k = KindFile
	case "directory":
		*k = KindDirectory
	default:
		return fmt.Errorf("unknown entry kind %q", s)
	}
	return nil
}

// DirectoryEntry is one row of a remote listing. Entries are produced
// fresh on every listing call and never persisted.
type DirectoryEntry struct {
	Name        string    `json:"name"`
	Kind        EntryKind `json:"kind"`
	SizeBytes   int64     `json:"size_bytes"`
	Owner       string    `json:"owner"`
	Permissions string    `json:"permissions"`
}

// DirectoryListing is the browser payload for one directory.
type DirectoryListing struct {
	Path    string           `json:"path"`
	Entries []DirectoryEntry `json:"entries"`
}
