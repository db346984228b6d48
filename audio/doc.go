// Package audio turns decoded request audio into a file the engine can read.
//
// Voice-message containers (ogg/opus, webm, mp4/m4a) are transcoded to mono
// 16 kHz 16-bit PCM WAV with ffmpeg. Transcoding is best-effort: a missing
// binary, timeout or failed run yields the original file with Degraded set
// instead of an error. Every file written for a request is tracked in a Scope
// and removed when the scope is released.
package audio
