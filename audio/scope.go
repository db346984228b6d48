package audio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/whisperd/logger"
)

// Scope owns the temporary files of one request. Release removes every
// tracked path and is safe to call more than once.
type Scope struct {
	mu       sync.Mutex
	dir      string
	paths    []string
	released bool
}

// NewScope creates a scope writing into dir, or os.TempDir() when dir is empty.
func NewScope(dir string) *Scope {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Scope{dir: dir}
}

// Dir returns the directory new files are created in.
func (s *Scope) Dir() string { return s.dir }

// Track registers path for removal on Release. Paths that never get created
// are fine; Release ignores them.
func (s *Scope) Track(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
}

// NewPath returns a fresh tracked path "<dir>/stt-<uuid>.<ext>" without
// creating the file.
func (s *Scope) NewPath(ext string) string {
	path := filepath.Join(s.dir, fmt.Sprintf("stt-%s.%s", uuid.NewString(), ext))
	s.Track(path)
	return path
}

// CreateTemp writes data to a new tracked file with the given extension.
func (s *Scope) CreateTemp(ext string, data []byte) (string, error) {
	path := s.NewPath(ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write temp audio: %w", err)
	}
	return path, nil
}

// Paths returns a copy of the tracked paths in tracking order.
func (s *Scope) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// Release removes all tracked files. Removal errors are logged at debug
// level and otherwise ignored.
func (s *Scope) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Get("audio").Debug("temp file cleanup failed", map[string]interface{}{
				logger.FieldPath:  p,
				logger.FieldError: err.Error(),
			})
		}
	}
}
