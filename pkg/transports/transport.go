package transports

import "context"

// Transport is the lifecycle contract of a candidate-facing listener.
// Implementations own their network lifecycle and create one session per
// accepted connection.
type Transport interface {
	Name() string
	Addr() string
	Start(ctx context.Context) error
	Stop() error
}
