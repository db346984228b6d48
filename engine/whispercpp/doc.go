// Package whispercpp is an engine backend that runs the whisper.cpp CLI.
//
// Weights are ggml files fetched once into the cache directory:
//
//	<cache>/ggml-<model>.bin        float16 and float32
//	<cache>/ggml-<model>-q8_0.bin   int8
//
// Each transcription is one whisper-cli process writing JSON output into a
// private temp directory. The detected language probability is parsed from
// stderr.
package whispercpp
