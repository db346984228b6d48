package engine

import (
	"context"

	"github.com/kbukum/whisperd/provider"
)

// Engine is the interface speech-recognition backends implement.
type Engine interface {
	provider.Provider // Name() and IsAvailable()

	// Load prepares a model, downloading weights into spec.CacheDir if needed.
	Load(ctx context.Context, spec LoadSpec) (Model, error)
}

// Model is a loaded model. Implementations must be safe for concurrent use.
// A Model may implement io.Closer to release resources at shutdown.
type Model interface {
	Transcribe(ctx context.Context, opts RunOptions) (Segments, error)
}
