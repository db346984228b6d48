package model

import "slices"

// DefaultModel is used when no default is configured.
const DefaultModel = "base"

var supported = []string{
	"tiny", "tiny.en",
	"base", "base.en",
	"small", "small.en",
	"medium", "medium.en",
	"large-v2", "large-v3",
}

// Supported returns the accepted model identifiers in catalog order.
func Supported() []string {
	return slices.Clone(supported)
}

// IsSupported reports whether id is in the catalog.
func IsSupported(id string) bool {
	return slices.Contains(supported, id)
}
