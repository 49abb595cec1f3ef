package gameevent

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// EuclideanRegistry is a Registry that visits listeners whose resolved
// position is within their radius of the event, measured in a straight line.
//
// Listeners may be registered and unregistered from within a Visitor. Such
// changes are staged and applied once the outermost visit returns.
type EuclideanRegistry struct {
	level    Level
	sectionY int32
	onEmpty  func(sectionY int32)
	debug    Debugger

	listeners []Listener
	toAdd     []Listener
	toRemove  []Listener
	// processing is the depth of visits currently running.
	processing int
}

// NewEuclideanRegistry creates a registry for the section at height sectionY.
// onEmpty, if not nil, is called when the last listener of the registry is
// removed. debug may be nil.
func NewEuclideanRegistry(l Level, sectionY int32, onEmpty func(sectionY int32), debug Debugger) *EuclideanRegistry {
	if debug == nil {
		debug = NopDebugger{}
	}
	return &EuclideanRegistry{level: l, sectionY: sectionY, onEmpty: onEmpty, debug: debug}
}

// Register adds a Listener to the registry.
func (r *EuclideanRegistry) Register(l Listener) {
	if r.processing > 0 {
		r.toAdd = append(r.toAdd, l)
	} else {
		r.listeners = append(r.listeners, l)
	}
	r.debug.ListenerRegistered(l)
}

// Unregister removes a Listener from the registry.
func (r *EuclideanRegistry) Unregister(l Listener) {
	if r.processing > 0 {
		r.toRemove = append(r.toRemove, l)
		return
	}
	if i := slices.Index(r.listeners, l); i >= 0 {
		r.listeners = slices.Delete(r.listeners, i, i+1)
	}
	r.checkEmpty()
}

// Empty reports if the registry holds no listeners.
func (r *EuclideanRegistry) Empty() bool {
	return len(r.listeners) == 0
}

// Len returns the amount of listeners in the registry.
func (r *EuclideanRegistry) Len() int {
	return len(r.listeners)
}

// Visit calls visitor for every Listener whose position resolves to within
// its radius of pos. Listeners unregistered during the visit are skipped if
// they were not yet visited. Staged changes are applied even if visitor
// panics.
func (r *EuclideanRegistry) Visit(ev *Event, pos mgl64.Vec3, ctx Context, visitor Visitor) bool {
	r.processing++
	defer r.endVisit()
	visited := false
	for _, l := range r.listeners {
		if slices.Contains(r.toRemove, l) {
			continue
		}
		if lpos, ok := r.postablePosition(l, pos); ok {
			visitor(l, lpos)
			visited = true
		}
	}
	return visited
}

func (r *EuclideanRegistry) endVisit() {
	r.processing--
	if r.processing == 0 {
		r.flush()
	}
}

// postablePosition resolves the position of l and returns it if pos lies
// within the radius of l. Listeners exactly on the radius are included.
func (r *EuclideanRegistry) postablePosition(l Listener, pos mgl64.Vec3) (mgl64.Vec3, bool) {
	lpos, ok := l.Source().Position(r.level)
	if !ok {
		return mgl64.Vec3{}, false
	}
	radius := float64(l.Radius())
	if distSqr(lpos, pos) > radius*radius {
		return mgl64.Vec3{}, false
	}
	return lpos, true
}

// flush applies the changes staged during a visit.
func (r *EuclideanRegistry) flush() {
	if len(r.toAdd) == 0 && len(r.toRemove) == 0 {
		return
	}
	r.listeners = append(r.listeners, r.toAdd...)
	if len(r.toRemove) > 0 {
		r.listeners = slices.DeleteFunc(r.listeners, func(l Listener) bool {
			return slices.Contains(r.toRemove, l)
		})
	}
	clear(r.toAdd)
	clear(r.toRemove)
	r.toAdd, r.toRemove = r.toAdd[:0], r.toRemove[:0]
	r.checkEmpty()
}

func (r *EuclideanRegistry) checkEmpty() {
	if len(r.listeners) == 0 && r.onEmpty != nil {
		r.onEmpty(r.sectionY)
	}
}

func distSqr(a, b mgl64.Vec3) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}
