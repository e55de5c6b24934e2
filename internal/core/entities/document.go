package entities

import (
	"encoding/json"
	"maps"
)

// Document is a storage-layer record: one Markdown source, or a synthetic
// directory index when a directory has children but no own index source.
type Document struct {
	URLPath     string // slash-separated, no leading slash; "" for root
	SourcePath  string // opaque identifier, meaningful only to Storage
	Title       string
	Description string
	PageType    string
	Vars        map[string]json.RawMessage
	Synthetic   bool // true when there is no backing Markdown source
	ParseError  error
}

// Metadata is the resolved sidecar metadata for a single url-path, after
// walking the inheritance chain from root down to the page itself.
type Metadata struct {
	Title       string
	Description string
	PageType    string
	Vars        map[string]json.RawMessage
}

// RawMetadata is what a single sidecar file deserializes into, before
// inheritance is applied.
type RawMetadata struct {
	Title       string                     `yaml:"title" json:"title"`
	Description string                     `yaml:"description" json:"description"`
	PageType    string                     `yaml:"type" json:"page_type"`
	Vars        map[string]json.RawMessage `yaml:"vars" json:"vars"`
}

// MergeChild applies the inheritance rule from the specification: title,
// description, and page_type are never inherited (the child's own value or
// absent), while vars deep-merges with child keys overriding parent keys.
//
// parent is the already-resolved Metadata for the enclosing directory; child
// is the raw sidecar (possibly zero-valued) for the node itself.
func MergeChild(parent Metadata, child RawMetadata) Metadata {
	merged := Metadata{
		Title:       child.Title,
		Description: child.Description,
		PageType:    child.PageType,
		Vars:        make(map[string]json.RawMessage, len(parent.Vars)+len(child.Vars)),
	}
	maps.Copy(merged.Vars, parent.Vars)
	maps.Copy(merged.Vars, child.Vars)
	return merged
}
