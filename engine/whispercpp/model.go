package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kbukum/whisperd/audio"
	"github.com/kbukum/whisperd/engine"
	"github.com/kbukum/whisperd/logger"
	"github.com/kbukum/whisperd/process"
)

const stderrLimit = 200

// Model runs whisper-cli against one set of weights.
type Model struct {
	binary  string
	threads int
	weights string
	vad     string
	gpu     bool
	log     *logger.Logger
}

// Transcribe runs the CLI to completion and returns its segments.
func (m *Model) Transcribe(ctx context.Context, opts engine.RunOptions) (engine.Segments, error) {
	dir, err := os.MkdirTemp("", "whisperd-run-*")
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	defer os.RemoveAll(dir)

	base := filepath.Join(dir, "out")
	res, err := process.Run(ctx, process.Command{
		Binary: m.binary,
		Args:   m.Args(opts, base),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", m.binary, err, strings.TrimSpace(res.StderrTail(stderrLimit)))
	}

	raw, err := os.ReadFile(base + ".json")
	if err != nil {
		return nil, fmt.Errorf("%s produced no output: %w", m.binary, err)
	}
	segs, info, err := parseOutput(raw, res.Stderr, opts.Language)
	if err != nil {
		return nil, err
	}

	if wav, err := audio.InspectWAV(opts.AudioPath); err == nil {
		info.Duration = wav.Seconds()
	} else if len(segs) > 0 {
		info.Duration = segs[len(segs)-1].End
	}

	m.log.Debug("whisper-cli finished", logger.Fields(
		logger.FieldDuration, res.Duration.String(),
		"segments", len(segs),
		"language", info.Language,
	))
	return engine.NewSegments(segs, info), nil
}

// Args returns the CLI arguments for one run writing JSON to base+".json".
func (m *Model) Args(opts engine.RunOptions, base string) []string {
	lang := opts.Language
	if lang == "" {
		lang = "auto"
	}
	args := []string{
		"-m", m.weights,
		"-f", opts.AudioPath,
		"-l", lang,
		"-t", strconv.Itoa(m.threads),
		"-oj",
		"-of", base,
	}
	if !m.gpu {
		args = append(args, "-ng")
	}
	if opts.VAD.Enabled && m.vad != "" {
		args = append(args,
			"--vad",
			"-vm", m.vad,
			"--vad-min-silence-duration-ms", strconv.FormatInt(opts.VAD.MinSilence.Milliseconds(), 10),
			"--vad-speech-pad-ms", strconv.FormatInt(opts.VAD.SpeechPad.Milliseconds(), 10),
		)
	}
	return args
}

// output is the subset of whisper-cli -oj output we read.
type output struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

var detectedRe = regexp.MustCompile(`auto-detected language: ([a-z-]+) \(p = ([0-9.]+)\)`)

// parseOutput converts CLI JSON (millisecond offsets) into segments and
// reads language detection from stderr. A requested language has
// probability 1.
func parseOutput(raw, stderr []byte, requested string) ([]engine.Segment, engine.Info, error) {
	var out output
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, engine.Info{}, fmt.Errorf("decode whisper-cli output: %w", err)
	}

	segs := make([]engine.Segment, 0, len(out.Transcription))
	for _, t := range out.Transcription {
		segs = append(segs, engine.Segment{
			Start: float64(t.Offsets.From) / 1000,
			End:   float64(t.Offsets.To) / 1000,
			Text:  t.Text,
		})
	}

	info := engine.Info{Language: out.Result.Language}
	if requested != "" {
		info.LanguageProbability = 1
		if info.Language == "" {
			info.Language = requested
		}
		return segs, info, nil
	}
	if m := detectedRe.FindSubmatch(stderr); m != nil {
		if info.Language == "" {
			info.Language = string(m[1])
		}
		p, err := strconv.ParseFloat(string(m[2]), 64)
		if err == nil {
			info.LanguageProbability = p
		}
	}
	return segs, info, nil
}
