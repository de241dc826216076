package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// speechTask runs audio synthesis as a cancellable background operation
// decoupled from question-text emission. Leaving the audio-emission step
// guarantees a ready_to_listen signal as a postcondition: it fires when the
// stream drains, when synthesis fails, or at the latest when the safety timer
// expires.
type speechTask struct {
	o  *Orchestrator
	wg sync.WaitGroup
}

func newSpeechTask(o *Orchestrator) *speechTask {
	return &speechTask{o: o}
}

func (t *speechTask) speak(ctx context.Context, text string) {
	var once sync.Once
	ready := func() {
		once.Do(func() {
			_ = t.o.conn.Send(Envelope{Type: EnvReadyToListen})
		})
	}
	timer := time.AfterFunc(t.o.cfg.ReadyTimeout, func() {
		t.o.logger.Warn("ready_signal_forced_by_timer")
		ready()
	})

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer timer.Stop()
		defer ready()

		start := time.Now()
		audioCh, errCh := t.o.tts.Synthesize(ctx, text)
		chunks, bytes := 0, 0
		for chunk := range audioCh {
			if err := t.o.conn.SendAudio(chunk); err != nil {
				t.o.logger.Warn("audio_send_failed", slog.String("error", err.Error()))
				return
			}
			chunks++
			bytes += len(chunk)
		}
		if err := <-errCh; err != nil {
			t.o.logger.Warn("synthesis_failed", slog.String("error", err.Error()))
			_ = t.o.conn.Send(Envelope{Type: EnvTTSError, Text: "speech synthesis unavailable for this question"})
			return
		}
		t.o.logger.Debug("synthesis_complete",
			slog.Int("chunks", chunks),
			slog.Int("bytes", bytes),
			slog.Duration("elapsed", time.Since(start)))
	}()
}

// wait blocks until all in-flight synthesis streams have drained.
func (t *speechTask) wait() {
	t.wg.Wait()
}
