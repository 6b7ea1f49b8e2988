package algolinalg

import (
	"cmp"
	"slices"
	"strings"
	"sync"
)

// Tracked is what a Registry sees of a numeric object.
type Tracked interface {
	Name() string
	Info() string
}

// Registry is notified when numeric objects are created and closed. It is
// an audit hook only and never owns the objects.
type Registry interface {
	Register(obj Tracked)
	Unregister(obj Tracked)
}

// Tracker is a Registry that keeps the live objects in creation order.
// It is safe for concurrent use by objects on different goroutines.
type Tracker struct {
	mu   sync.Mutex
	next uint64
	ids  map[Tracked]uint64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{ids: make(map[Tracked]uint64)}
}

// Register records obj. Registering an object twice keeps its first position.
func (t *Tracker) Register(obj Tracked) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.ids[obj]; ok {
		return
	}
	t.ids[obj] = t.next
	t.next++
}

// Unregister forgets obj.
func (t *Tracker) Unregister(obj Tracked) {
	t.mu.Lock()
	delete(t.ids, obj)
	t.mu.Unlock()
}

// Len returns the number of live objects.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}

// Objects returns the live objects in creation order.
func (t *Tracker) Objects() []Tracked {
	t.mu.Lock()
	defer t.mu.Unlock()

	objs := make([]Tracked, 0, len(t.ids))
	for obj := range t.ids {
		objs = append(objs, obj)
	}
	slices.SortFunc(objs, func(a, b Tracked) int {
		return cmp.Compare(t.ids[a], t.ids[b])
	})
	return objs
}

// Info returns the Info line of every live object, one per line.
func (t *Tracker) Info() string {
	var sb strings.Builder
	for _, obj := range t.Objects() {
		sb.WriteString(obj.Info())
		sb.WriteByte('\n')
	}
	return sb.String()
}
