package audio

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kbukum/whisperd/util"
)

// DefaultFormat is assumed when a request declares no format.
const DefaultFormat = "ogg"

// Canonical audio parameters expected by the engine.
const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
)

// Payload is decoded request audio plus its declared container/codec label.
type Payload struct {
	Data   []byte
	Format string
}

// Normalized references the file handed to the engine. On degradation Path is
// the original upload and Reason says why conversion was skipped.
type Normalized struct {
	Path      string
	Original  string
	Format    string
	Converted bool
	Degraded  bool
	Reason    string
}

// conversionFormats are containers/codecs the engine cannot ingest directly.
var conversionFormats = map[string]bool{
	"webm": true,
	"ogg":  true,
	"mp4":  true,
	"m4a":  true,
	"opus": true,
	"oga":  true,
}

// NeedsConversion reports whether a declared format triggers transcoding.
// The check is case-insensitive.
func NeedsConversion(format string) bool {
	return conversionFormats[strings.ToLower(strings.TrimSpace(format))]
}

// ConversionFormats returns the formats that trigger transcoding.
func ConversionFormats() []string {
	return []string{"webm", "ogg", "mp4", "m4a", "opus", "oga"}
}

// formatLabel turns a declared format into a safe file extension. When the
// declared label has no usable characters the content is sniffed instead, and
// "bin" is the last resort.
func formatLabel(declared string, data []byte) string {
	if label := util.SanitizeLabel(declared, ""); label != "" {
		return label
	}
	if ext := strings.TrimPrefix(mimetype.Detect(data).Extension(), "."); ext != "" {
		return util.SanitizeLabel(ext, "bin")
	}
	return "bin"
}
