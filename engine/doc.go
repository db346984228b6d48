// Package engine defines the speech-recognition backend contract.
//
// An Engine loads a Model for a (model, device, precision) triple; a Model
// turns an audio file into Segments. Segments are consumed once with Next,
// and Info becomes valid only after Next has reported exhaustion.
//
// Backends live in sub-packages: whispercpp runs the whisper.cpp CLI, sidecar
// calls a faster-whisper HTTP service. NewManager selects among them.
package engine
