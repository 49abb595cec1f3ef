package gameevent

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
)

// Debugger receives information on listeners and events for visualisation.
// It never affects the dispatch of events.
type Debugger interface {
	// ListenerRegistered is called when a Listener is registered.
	ListenerRegistered(l Listener)
	// EventPosted is called when an event notified at least one Listener.
	EventPosted(ev *Event, pos mgl64.Vec3)
}

// NopDebugger is a Debugger that does nothing.
type NopDebugger struct{}

// ListenerRegistered ...
func (NopDebugger) ListenerRegistered(Listener) {}

// EventPosted ...
func (NopDebugger) EventPosted(*Event, mgl64.Vec3) {}

// LogDebugger is a Debugger that logs at debug level.
type LogDebugger struct {
	Log *slog.Logger
}

// ListenerRegistered ...
func (d LogDebugger) ListenerRegistered(l Listener) {
	d.Log.Debug("Registered game event listener.", "radius", l.Radius(), "mode", l.DeliveryMode())
}

// EventPosted ...
func (d LogDebugger) EventPosted(ev *Event, pos mgl64.Vec3) {
	d.Log.Debug("Posted game event.", "event", ev, "pos", pos)
}
