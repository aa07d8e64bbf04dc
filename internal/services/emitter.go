package services

import (
	"context"

	"github.com/kysclient/foodly-backend/internal/pkg/logger"
	"github.com/kysclient/foodly-backend/internal/realtime"
	"github.com/kysclient/foodly-backend/internal/realtime/bus"
)

// Emitter abstracts where realtime messages go: straight to the local hub in
// a single-instance deployment, or through the redis bus when several
// instances share connected clients.
type Emitter interface {
	Emit(ctx context.Context, msg realtime.Message)
}

type hubEmitter struct {
	hub *realtime.Hub
}

func NewHubEmitter(hub *realtime.Hub) Emitter {
	return &hubEmitter{hub: hub}
}

func (e *hubEmitter) Emit(_ context.Context, msg realtime.Message) {
	if e == nil || e.hub == nil {
		return
	}
	e.hub.Broadcast(msg)
}

type busEmitter struct {
	log *logger.Logger
	bus bus.Bus
}

func NewBusEmitter(log *logger.Logger, b bus.Bus) Emitter {
	return &busEmitter{log: log.With("service", "BusEmitter"), bus: b}
}

// Emit publishes to the shared bus. Delivery is best-effort: a publish
// failure is logged and swallowed, never propagated to the pipeline.
func (e *busEmitter) Emit(ctx context.Context, msg realtime.Message) {
	if e == nil || e.bus == nil {
		return
	}
	if err := e.bus.Publish(ctx, msg); err != nil {
		e.log.Warn("realtime publish failed", "channel", msg.Channel, "event", msg.Event, "error", err)
	}
}
