// Package audio provides audio processing utilities.
//
// This package serves as an umbrella for audio-related sub-packages:
//
//   - codec/wav: WAV PCM16 decoding, probing and encoding
//   - codec/flac: FLAC decoding and probing
//   - fbank: log mel filterbank feature extraction
//   - resample: sample-rate conversion
package audio
