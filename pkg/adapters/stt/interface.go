package stt

import "context"

// Transcriber defines the contract for any STT vendor implementation.
// Implementations own their timeout/retry budget; the caller treats every
// outcome, success or failure, as terminal for that call.
type Transcriber interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Transcribe converts one complete audio payload into text. The context
	// hint carries the pending interview question so the vendor can bias
	// recognition toward the expected vocabulary.
	Transcribe(ctx context.Context, audio []byte, mimeType, contextHint string) (string, error)
}
