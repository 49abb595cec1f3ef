package gameevent

import (
	"cmp"
	"slices"

	"github.com/dm-vev/adamant-poi/server/block/cube"
	"github.com/dm-vev/adamant-poi/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// ListenerInfo holds a ByDistance Listener found for an event, waiting to be
// notified.
type ListenerInfo struct {
	Event     *Event
	Source    mgl64.Vec3
	Context   Context
	Recipient Listener
	// DistSqr is the squared distance between the Listener and the event.
	DistSqr float64
}

// Compare orders ListenerInfo by the distance of the Listener to the event.
func (i ListenerInfo) Compare(other ListenerInfo) int {
	return cmp.Compare(i.DistSqr, other.DistSqr)
}

// Dispatcher posts events to the listeners of a Level.
type Dispatcher struct {
	level Level
	debug Debugger
}

// NewDispatcher creates a Dispatcher posting events in the Level passed. debug
// may be nil.
func NewDispatcher(l Level, debug Debugger) *Dispatcher {
	if debug == nil {
		debug = NopDebugger{}
	}
	return &Dispatcher{level: l, debug: debug}
}

// Post posts an event at pos. Every section within the notification radius of
// the event is searched for listeners, but only in chunks that are loaded.
// Immediate listeners are notified as they are found. ByDistance listeners
// are notified afterwards, closest first, where listeners at the same
// distance keep the order they were found in. Post returns true if any
// listener was notified.
func (d *Dispatcher) Post(ev *Event, pos mgl64.Vec3, ctx Context) bool {
	r := ev.NotificationRadius
	p := cube.PosFromVec3(pos)
	minX, maxX := world.BlockToSection(p[0]-r), world.BlockToSection(p[0]+r)
	minY, maxY := world.BlockToSection(p[1]-r), world.BlockToSection(p[1]+r)
	minZ, maxZ := world.BlockToSection(p[2]-r), world.BlockToSection(p[2]+r)

	var buffered []ListenerInfo
	visitor := func(l Listener, lpos mgl64.Vec3) {
		if l.DeliveryMode() == ByDistance {
			buffered = append(buffered, ListenerInfo{Event: ev, Source: pos, Context: ctx, Recipient: l, DistSqr: distSqr(lpos, pos)})
			return
		}
		l.HandleGameEvent(d.level, ev, ctx, pos)
	}

	notified := false
	for x := minX; x <= maxX; x++ {
		for z := minZ; z <= maxZ; z++ {
			c, ok := d.level.LoadedChunk(world.ChunkPos{x, z})
			if !ok {
				continue
			}
			for y := minY; y <= maxY; y++ {
				if reg, ok := c.ListenerRegistry(y); ok && reg.Visit(ev, pos, ctx, visitor) {
					notified = true
				}
			}
		}
	}
	if len(buffered) > 0 {
		slices.SortStableFunc(buffered, ListenerInfo.Compare)
		for _, info := range buffered {
			info.Recipient.HandleGameEvent(d.level, info.Event, info.Context, info.Source)
		}
	}
	if notified {
		d.debug.EventPosted(ev, pos)
	}
	return notified
}
