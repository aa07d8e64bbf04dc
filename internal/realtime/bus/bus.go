package bus

import (
	"context"

	"github.com/kysclient/foodly-backend/internal/realtime"
)

// Bus carries realtime messages across backend instances so any instance can
// notify a client connected elsewhere.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error
	Close() error
}
