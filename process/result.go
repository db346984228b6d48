package process

import (
	"time"

	"github.com/kbukum/whisperd/util"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed or never started.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
	// TimedOut is set when Command.Timeout expired before the process exited.
	TimedOut bool
}

// StderrTail returns at most the last n bytes of stderr, for log lines. A
// multi-byte character cut by the limit is dropped whole.
func (r *Result) StderrTail(n int) string {
	if r == nil {
		return ""
	}
	return util.TruncateTail(string(r.Stderr), n)
}
