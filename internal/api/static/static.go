// Package static embeds the default docs-viewer shell served as a SPA
// fallback when no on-disk asset directory is configured.
package static

import "embed"

// DefaultAssets holds the embedded fallback asset tree, served offline
// without requiring a separate frontend build step.
//
//go:embed assets
var DefaultAssets embed.FS
