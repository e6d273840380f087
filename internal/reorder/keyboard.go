package reorder

import "fmt"

// Key is a discrete keyboard reorder command.
type Key string

const (
	KeyUp   Key = "up"
	KeyDown Key = "down"
	KeyHome Key = "home"
	KeyEnd  Key = "end"
)

// ParseKey converts a wire value into a Key.
func ParseKey(value string) (Key, error) {
	switch k := Key(value); k {
	case KeyUp, KeyDown, KeyHome, KeyEnd:
		return k, nil
	default:
		return "", fmt.Errorf("unsupported reorder key %q", value)
	}
}

// KeyboardAdapter produces the same Event a pointer drag would, from a
// single keyboard step over the current id ordering.
type KeyboardAdapter struct{}

// NewKeyboardAdapter creates a keyboard adapter.
func NewKeyboardAdapter() *KeyboardAdapter {
	return &KeyboardAdapter{}
}

// Step returns the event moving id one step in the direction of key, or to
// the first/last position for KeyHome/KeyEnd. No event is produced when id
// is unknown or already at the boundary.
func (k *KeyboardAdapter) Step(ids []string, id string, key Key) (Event, bool) {
	index := -1
	for i, candidate := range ids {
		if candidate == id {
			index = i
			break
		}
	}
	if index < 0 {
		return Event{}, false
	}

	target := index
	switch key {
	case KeyUp:
		target = index - 1
	case KeyDown:
		target = index + 1
	case KeyHome:
		target = 0
	case KeyEnd:
		target = len(ids) - 1
	}

	if target < 0 || target >= len(ids) || target == index {
		return Event{}, false
	}
	return Event{MovedID: id, TargetID: ids[target]}, true
}
