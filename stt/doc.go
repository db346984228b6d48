// Package stt orchestrates one transcription request.
//
// Service.Transcribe moves through Decoding, Normalizing, ModelResolution,
// Transcribing and Responding. Any failure moves to Failed. Every temp file
// a request creates lives in its own audio.Scope and is removed when the
// request ends, whatever the outcome.
package stt
