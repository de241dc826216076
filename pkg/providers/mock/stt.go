package mock

import (
	"context"
	"sync"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/stt"
)

// STTConfig scripts the mock transcriber. Transcripts are returned in order;
// the last one repeats once the script is exhausted.
type STTConfig struct {
	Transcripts []string
	Err         error
}

type Transcriber struct {
	cfg   STTConfig
	mu    sync.Mutex
	calls int
	hints []string
}

func NewTranscriber(cfg STTConfig) *Transcriber {
	if len(cfg.Transcripts) == 0 {
		cfg.Transcripts = []string{"mock transcript"}
	}
	return &Transcriber{cfg: cfg}
}

func (t *Transcriber) Name() string { return "mock_stt" }

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType, contextHint string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hints = append(t.hints, contextHint)
	if t.cfg.Err != nil {
		return "", t.cfg.Err
	}
	idx := t.calls
	if idx >= len(t.cfg.Transcripts) {
		idx = len(t.cfg.Transcripts) - 1
	}
	t.calls++
	return t.cfg.Transcripts[idx], nil
}

// Calls reports how many transcriptions were requested.
func (t *Transcriber) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Hints returns the context hints passed to each call.
func (t *Transcriber) Hints() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.hints))
	copy(out, t.hints)
	return out
}

var _ stt.Transcriber = (*Transcriber)(nil)
