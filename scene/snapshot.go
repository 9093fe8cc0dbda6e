package scene

import (
	"maps"
	"slices"
)

// Snapshot maps object names to their resolved pose at one instant.
type Snapshot map[string]SavedObject

func (s Snapshot) Clone() Snapshot {
	return maps.Clone(s)
}

func (s Snapshot) Names() []string {
	return slices.Sorted(maps.Keys(s))
}

func (s Snapshot) Equal(other Snapshot) bool {
	return maps.Equal(s, other)
}
