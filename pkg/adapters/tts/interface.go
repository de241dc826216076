package tts

import "context"

// Synthesizer defines the contract for any TTS vendor implementation.
// Synthesize streams audio chunks for one utterance; the audio channel is
// closed when the stream ends, and at most one error is delivered on the
// error channel. A mid-stream failure surfaces there rather than being
// swallowed.
type Synthesizer interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Synthesize streams synthesized speech for the given text.
	Synthesize(ctx context.Context, text string) (<-chan []byte, <-chan error)
}
