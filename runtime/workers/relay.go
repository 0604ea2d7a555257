package workers

import (
	"context"
	"log/slog"

	"github.com/firekill222/signaling-server/domain/event"
	"github.com/firekill222/signaling-server/runtime"
)

// RelayWorker drains the session event channel and drives the engine.
//
// It is the single logical event stream of the relay: one inbound frame
// or lifecycle event is processed to completion before the next one, so
// registry mutations never interleave. The dispatcher may run many
// connection goroutines; they all funnel through this channel.
type RelayWorker struct {
	log    *slog.Logger
	events <-chan event.SessionEvent
	engine *runtime.Engine
}

func NewRelayWorker(log *slog.Logger, events <-chan event.SessionEvent, engine *runtime.Engine) *RelayWorker {
	return &RelayWorker{log: log, events: events, engine: engine}
}

func (w *RelayWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping relay loop")
			return nil
		case evt := <-w.events:
			w.Handle(evt)
		}
	}
}

// Handle applies one event synchronously. Exposed for tests.
func (w *RelayWorker) Handle(evt event.SessionEvent) {
	switch e := evt.(type) {
	case event.Connected:
		w.engine.HandleConnect(e.Session)
	case event.FrameReceived:
		w.engine.HandleFrame(e.Session, e.Payload)
	case event.Closed:
		w.engine.HandleDisconnect(e.Session)
	default:
		w.log.Debug("Unhandled session event", "session_id", evt.SessionID())
	}
}
