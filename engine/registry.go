package engine

import "github.com/kbukum/whisperd/provider"

// Backend names.
const (
	WhisperCpp = "whispercpp"
	Sidecar    = "sidecar"
)

// DefaultPriority is the order "auto" tries backends in.
var DefaultPriority = []string{WhisperCpp, Sidecar}

// NewRegistry creates a new provider registry for engines.
func NewRegistry() *provider.Registry[Engine] {
	return provider.NewRegistry[Engine]()
}

// NewManager creates a manager for engine backends. By default "auto" picks
// the first available backend in DefaultPriority.
func NewManager() *provider.Manager[Engine] {
	return provider.NewManager(NewRegistry(), &provider.PrioritySelector[Engine]{Priority: DefaultPriority})
}
