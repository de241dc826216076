package resume

import (
	"context"
	"errors"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/interview"
)

// Typed extraction failures. Callers branch on these to map the failure to a
// client-facing status; anything else is an infrastructure error.
var (
	ErrUnreadable = errors.New("resume document is unreadable")
	ErrEmpty      = errors.New("resume document is empty")
	ErrOversized  = errors.New("resume document exceeds the size limit")
)

// Extractor is the external collaborator turning an uploaded document into a
// structured profile. Extraction heuristics live behind this boundary.
type Extractor interface {
	Extract(ctx context.Context, document []byte, filename string) (*interview.ResumeProfile, error)
}
