package layering

import (
	"errors"
	"fmt"
	"sort"
)

const (
	// PriorityDefaults is the weakest layer: values compiled into the program.
	PriorityDefaults = 100
	// PriorityPersisted holds whatever the durable store returned.
	PriorityPersisted = 500
)

var (
	// ErrLayerNameRequired indicates a layer without a name.
	ErrLayerNameRequired = errors.New("layering: name must be provided")
	// ErrDuplicateLayerName indicates two layers share a name.
	ErrDuplicateLayerName = errors.New("layering: names must be unique")
	// ErrPriorityOrder indicates two layers share a priority.
	ErrPriorityOrder = errors.New("layering: priorities must be strictly ordered")
	// ErrEmptyStack is returned when merging a stack with no layers.
	ErrEmptyStack = errors.New("layering: stack must include at least one layer")
)

// Layer pairs a named precedence bucket with the snapshot captured for it.
type Layer[T any] struct {
	Name       string
	Priority   int
	Snapshot   T
	SnapshotID string
}

// NewLayer constructs a Layer holding a detached copy of snapshot.
func NewLayer[T any](name string, priority int, snapshot T, snapshotID string) Layer[T] {
	return Layer[T]{
		Name:       name,
		Priority:   priority,
		Snapshot:   Clone(snapshot),
		SnapshotID: snapshotID,
	}
}

// Stack is an immutable set of layers ordered strongest first.
type Stack[T any] struct {
	layers []Layer[T]
}

// NewStack validates and sorts layers so the highest priority comes first.
func NewStack[T any](layers ...Layer[T]) (*Stack[T], error) {
	seen := make(map[string]struct{}, len(layers))
	copied := make([]Layer[T], len(layers))
	for i, layer := range layers {
		if layer.Name == "" {
			return nil, ErrLayerNameRequired
		}
		if _, ok := seen[layer.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLayerName, layer.Name)
		}
		seen[layer.Name] = struct{}{}
		copied[i] = NewLayer(layer.Name, layer.Priority, layer.Snapshot, layer.SnapshotID)
	}

	sort.Slice(copied, func(i, j int) bool {
		return copied[i].Priority > copied[j].Priority
	})
	for i := 1; i < len(copied); i++ {
		if copied[i-1].Priority == copied[i].Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Priority)
		}
	}
	return &Stack[T]{layers: copied}, nil
}

// Len returns the number of layers in the stack.
func (s *Stack[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Names returns layer names strongest first.
func (s *Stack[T]) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.layers))
	for i, layer := range s.layers {
		names[i] = layer.Name
	}
	return names
}

// Merge resolves the stack into a single snapshot.
func (s *Stack[T]) Merge() (T, error) {
	var zero T
	if s == nil || len(s.layers) == 0 {
		return zero, ErrEmptyStack
	}
	snapshots := make([]T, len(s.layers))
	for i := range s.layers {
		snapshots[i] = s.layers[i].Snapshot
	}
	return MergeLayers(snapshots...), nil
}
