package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotWAV is returned when the input has no RIFF/WAVE header.
var ErrNotWAV = errors.New("audio: not a RIFF/WAVE file")

// ErrCorruptWAV is returned when a chunk declares more bytes than the input
// holds.
var ErrCorruptWAV = errors.New("audio: corrupt RIFF/WAVE file")

// pcmFormat is the WAVE format tag for integer PCM.
const pcmFormat = 1

// WAVInfo is what InspectWAV reads from a RIFF/WAVE header.
type WAVInfo struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	DataSize      uint32
}

// Duration is the playback length of the data chunk.
func (w WAVInfo) Duration() time.Duration {
	bytesPerSecond := uint64(w.SampleRate) * uint64(w.Channels) * uint64(w.BitsPerSample) / 8
	if bytesPerSecond == 0 {
		return 0
	}
	return time.Duration(uint64(w.DataSize) * uint64(time.Second) / bytesPerSecond)
}

// Seconds is Duration in fractional seconds.
func (w WAVInfo) Seconds() float64 {
	return w.Duration().Seconds()
}

// Canonical reports whether the audio is mono 16 kHz 16-bit PCM.
func (w WAVInfo) Canonical() bool {
	return w.AudioFormat == pcmFormat && w.Channels == Channels && w.SampleRate == SampleRate && w.BitsPerSample == BitsPerSample
}

// InspectWAV reads the header of the WAV file at path.
func InspectWAV(path string) (WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, err
	}
	defer f.Close()
	return ReadWAVInfo(f)
}

// ReadWAVInfo reads the fmt chunk and the data chunk size from rs. Chunks
// other than "fmt " and "data" (LIST, JUNK, ...) are skipped.
func ReadWAVInfo(rs io.ReadSeeker) (WAVInfo, error) {
	layout, err := scanChunks(rs)
	if err != nil {
		return WAVInfo{}, err
	}

	d := wav.NewDecoder(rs)
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return WAVInfo{}, fmt.Errorf("audio: wav: %w", err)
	}
	if err := d.FwdToPCM(); err != nil {
		return WAVInfo{}, fmt.Errorf("audio: wav: %w", err)
	}
	if d.SampleRate == 0 {
		return WAVInfo{}, fmt.Errorf("%w: no fmt chunk", ErrCorruptWAV)
	}

	info := WAVInfo{
		AudioFormat:   d.WavAudioFormat,
		Channels:      d.NumChans,
		SampleRate:    d.SampleRate,
		BitsPerSample: d.BitDepth,
		DataSize:      uint32(d.PCMSize),
	}
	// Streamed writers leave the size as 0xFFFFFFFF; the bytes actually
	// present are what plays.
	if remaining := layout.size - layout.dataStart; int64(info.DataSize) > remaining {
		info.DataSize = uint32(remaining)
	}
	return info, nil
}

type chunkLayout struct {
	size      int64
	dataStart int64
}

// scanChunks walks the chunk headers up to "data" without reading chunk
// bodies, rejecting any chunk that declares more bytes than rs holds. The
// decoder allocates the fmt chunk at its declared size, so this must run
// first. rs is left at offset 0.
func scanChunks(rs io.ReadSeeker) (chunkLayout, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return chunkLayout{}, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return chunkLayout{}, err
	}

	var riff [12]byte
	if _, err := io.ReadFull(rs, riff[:]); err != nil {
		return chunkLayout{}, ErrNotWAV
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return chunkLayout{}, ErrNotWAV
	}

	pos := int64(len(riff))
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(rs, hdr[:]); err != nil {
			return chunkLayout{}, fmt.Errorf("%w: missing data chunk", ErrCorruptWAV)
		}
		id := string(hdr[0:4])
		n := int64(binary.LittleEndian.Uint32(hdr[4:8]))
		pos += int64(len(hdr))
		if id == "data" {
			if _, err := rs.Seek(0, io.SeekStart); err != nil {
				return chunkLayout{}, err
			}
			return chunkLayout{size: size, dataStart: pos}, nil
		}
		if n > size-pos {
			return chunkLayout{}, fmt.Errorf("%w: %q chunk declares %d bytes, %d remain", ErrCorruptWAV, id, n, size-pos)
		}
		pos += n + n&1
		if _, err := rs.Seek(pos, io.SeekStart); err != nil {
			return chunkLayout{}, err
		}
	}
}

// WriteSilentWAV writes seconds of mono 16-bit PCM silence at rate Hz. The
// encoder patches the header sizes on close, so w must be seekable.
func WriteSilentWAV(w io.WriteSeeker, seconds float64, rate int) error {
	if rate <= 0 {
		return fmt.Errorf("audio: sample rate must be positive, got %d", rate)
	}
	if seconds < 0 {
		return fmt.Errorf("audio: duration must be non-negative, got %v", seconds)
	}

	enc := wav.NewEncoder(w, rate, BitsPerSample, Channels, pcmFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: Channels, SampleRate: rate},
		SourceBitDepth: BitsPerSample,
	}
	block := make([]int, rate)
	samples := int(seconds * float64(rate))
	// The first Write emits the header even when there are no samples.
	for written := 0; ; {
		n := min(samples-written, len(block))
		buf.Data = block[:n]
		if err := enc.Write(buf); err != nil {
			return err
		}
		written += n
		if written >= samples {
			break
		}
	}
	return enc.Close()
}

// SilentWAV returns WriteSilentWAV output as bytes.
func SilentWAV(seconds float64, rate int) ([]byte, error) {
	f, err := os.CreateTemp("", "whisperd-silence-*.wav")
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := WriteSilentWAV(f, seconds, rate); err != nil {
		return nil, err
	}
	return os.ReadFile(f.Name())
}
