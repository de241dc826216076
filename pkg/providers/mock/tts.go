package mock

import (
	"context"
	"sync"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/adapters/tts"
)

// TTSConfig scripts the mock synthesizer.
type TTSConfig struct {
	Chunks [][]byte
	Err    error
}

type Synthesizer struct {
	cfg   TTSConfig
	mu    sync.Mutex
	texts []string
}

func NewSynthesizer(cfg TTSConfig) *Synthesizer {
	if len(cfg.Chunks) == 0 && cfg.Err == nil {
		cfg.Chunks = [][]byte{[]byte("mock-audio")}
	}
	return &Synthesizer{cfg: cfg}
}

func (s *Synthesizer) Name() string { return "mock_tts" }

func (s *Synthesizer) Synthesize(ctx context.Context, text string) (<-chan []byte, <-chan error) {
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.mu.Unlock()

	audioCh := make(chan []byte, len(s.cfg.Chunks)+1)
	errCh := make(chan error, 1)
	go func() {
		defer close(audioCh)
		defer close(errCh)
		if s.cfg.Err != nil {
			errCh <- s.cfg.Err
			return
		}
		for _, chunk := range s.cfg.Chunks {
			select {
			case audioCh <- chunk:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()
	return audioCh, errCh
}

// Texts returns every utterance that was synthesized, in order.
func (s *Synthesizer) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.texts))
	copy(out, s.texts)
	return out
}

var _ tts.Synthesizer = (*Synthesizer)(nil)
