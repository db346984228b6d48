// Package transcription runs a loaded model over normalized audio.
//
// The Invoker drains the engine's segment sequence, then reads its metadata,
// and merges segment text into a single transcript.
package transcription
