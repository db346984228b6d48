package middleware

import (
	"net/http"

	"github.com/kbukum/whisperd/util"
)

// DefaultMaxBodySize fits a few minutes of base64-encoded voice audio.
const DefaultMaxBodySize = 50 * 1024 * 1024

// BodySizeLimit returns middleware that restricts the request body to the given
// size string (e.g. "50MB", "512KB"). Unparseable sizes fall back to
// DefaultMaxBodySize.
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, DefaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				http.Error(w, `{"detail":"Request body too large"}`, http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}
