package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DefaultDPI is the render DPI used for diagram output (2x for retina
// displays); StandardDPI is the CSS reference pixel DPI used to compute
// display width from the rendered pixel width.
const (
	DefaultDPI  = 192
	StandardDPI = 96
)

// DiagramKind enumerates the fenced-block languages the diagram processor
// recognizes, each mapped to a remote rendering-service endpoint.
type DiagramKind string

const (
	DiagramPlantUML DiagramKind = "plantuml"
	DiagramMermaid  DiagramKind = "mermaid"
	DiagramGraphviz DiagramKind = "graphviz"
	DiagramD2       DiagramKind = "d2"
	DiagramBlockDiag DiagramKind = "blockdiag"
)

// Endpoints maps a fenced-block language tag to the remote rendering
// service's path segment. Languages not present here are not diagrams.
var Endpoints = map[DiagramKind]string{
	DiagramPlantUML:  "plantuml",
	DiagramMermaid:   "mermaid",
	DiagramGraphviz:  "graphviz",
	DiagramD2:        "d2",
	DiagramBlockDiag: "blockdiag",
}

// DiagramFormat is the rendered output format requested from the service.
type DiagramFormat string

const (
	FormatSVG DiagramFormat = "svg"
	FormatPNG DiagramFormat = "png"
)

// DiagramKey holds the parameters that determine a diagram's content hash.
type DiagramKey struct {
	Endpoint string
	Format   DiagramFormat
	DPI      int
	Source   string // preprocessed source
}

// ComputeHash returns SHA-256("{endpoint}:{format}:{dpi}:{source}") hex
// encoded, used both as the cache key and the output filename stem.
func (k DiagramKey) ComputeHash() string {
	content := fmt.Sprintf("%s:%s:%d:%s", k.Endpoint, k.Format, k.DPI, k.Source)
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// RenderedDiagram is the result of rendering one diagram's content key.
type RenderedDiagram struct {
	Hash   string
	Format DiagramFormat
	SVG    string // populated when Format == FormatSVG
	Width  int    // pixel width, populated when Format == FormatPNG
	Height int    // pixel height, populated when Format == FormatPNG
}

// DisplayWidth returns the embedding width in CSS pixels: width*96/dpi. Per
// the open-question resolution in SPEC_FULL.md, this formula is used
// unconditionally (never width/2).
func (r RenderedDiagram) DisplayWidth(dpi int) int {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return r.Width * StandardDPI / dpi
}
