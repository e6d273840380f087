package reorder

import "math"

// DefaultDragThreshold is the pointer travel, in pixels, required before a
// press turns into a drag.
const DefaultDragThreshold = 8.0

// PointerAdapter turns a press / drag / release gesture into an Event.
// A press that never travels Threshold pixels is a click and yields nothing.
type PointerAdapter struct {
	Threshold float64

	pressed  bool
	active   bool
	movedID  string
	targetID string
	originX  float64
	originY  float64
}

// NewPointerAdapter creates an adapter; a non-positive threshold falls back
// to DefaultDragThreshold.
func NewPointerAdapter(threshold float64) *PointerAdapter {
	if threshold <= 0 {
		threshold = DefaultDragThreshold
	}
	return &PointerAdapter{Threshold: threshold}
}

// Press starts tracking a gesture on the item id at the given coordinates.
func (p *PointerAdapter) Press(id string, x, y float64) {
	p.reset()
	p.pressed = true
	p.movedID = id
	p.originX = x
	p.originY = y
}

// Drag records pointer movement. It returns true once the drag is active.
func (p *PointerAdapter) Drag(x, y float64) bool {
	if !p.pressed {
		return false
	}
	if !p.active && math.Hypot(x-p.originX, y-p.originY) >= p.Threshold {
		p.active = true
	}
	return p.active
}

// Over records the item currently under the pointer. Ignored until the drag
// is active.
func (p *PointerAdapter) Over(targetID string) {
	if p.active {
		p.targetID = targetID
	}
}

// Release ends the gesture. The event is only produced for an active drag
// that ended over a different item.
func (p *PointerAdapter) Release() (Event, bool) {
	defer p.reset()

	if !p.active {
		return Event{}, false
	}
	ev := Event{MovedID: p.movedID, TargetID: p.targetID}
	if ev.IsNoop() {
		return Event{}, false
	}
	return ev, true
}

// Cancel abandons the gesture without producing an event.
func (p *PointerAdapter) Cancel() {
	p.reset()
}

func (p *PointerAdapter) reset() {
	p.pressed = false
	p.active = false
	p.movedID = ""
	p.targetID = ""
	p.originX = 0
	p.originY = 0
}
