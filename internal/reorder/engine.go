package reorder

// Event is the canonical reorder request produced by every input adapter.
type Event struct {
	MovedID  string `json:"moved_id" binding:"required"`
	TargetID string `json:"target_id" binding:"required"`
}

// IsNoop reports whether the event cannot change any ordering.
func (e Event) IsNoop() bool {
	return e.MovedID == "" || e.TargetID == "" || e.MovedID == e.TargetID
}

// Move returns the sequence obtained by removing the item identified by
// movedID and reinserting it at the index currently held by targetID.
// Intervening items shift by one position. When either id is missing or both
// ids are equal the input slice itself is returned. The input is never mutated.
func Move[T any](items []T, idOf func(T) string, movedID, targetID string) []T {
	out, _ := move(items, idOf, movedID, targetID)
	return out
}

func move[T any](items []T, idOf func(T) string, movedID, targetID string) ([]T, bool) {
	if movedID == targetID {
		return items, false
	}

	from, to := -1, -1
	for i, item := range items {
		switch idOf(item) {
		case movedID:
			from = i
		case targetID:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return items, false
	}

	out := make([]T, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)

	moved := items[from]
	out = append(out, moved)
	copy(out[to+1:], out[to:len(out)-1])
	out[to] = moved

	return out, true
}

// Engine applies reorder events to a sequence and notifies the caller with
// the complete new ordering.
type Engine[T any] struct {
	idOf        func(T) string
	onReordered func([]T)
}

// NewEngine creates an engine. onReordered may be nil.
func NewEngine[T any](idOf func(T) string, onReordered func([]T)) *Engine[T] {
	return &Engine[T]{
		idOf:        idOf,
		onReordered: onReordered,
	}
}

// Apply computes the sequence resulting from ev. The boolean is false when the
// event did not change the order, in which case items is returned as is and
// the callback is not invoked.
func (e *Engine[T]) Apply(items []T, ev Event) ([]T, bool) {
	if ev.IsNoop() {
		return items, false
	}

	next, moved := move(items, e.idOf, ev.MovedID, ev.TargetID)
	if !moved {
		return items, false
	}

	if e.onReordered != nil {
		e.onReordered(next)
	}
	return next, true
}
