package game

import (
	"fmt"
	"sort"

	"github.com/xhedwig/ofdp-sdg/pkg/topology"
)

// Action is the role a switch plays in a probing round
type Action int

const (
	// Defense keeps the switch silent this round
	Defense Action = 0
	// Help makes the switch emit discovery probes
	Help Action = 1
)

func (a Action) String() string {
	switch a {
	case Defense:
		return "defense"
	case Help:
		return "help"
	default:
		return "unknown"
	}
}

// MarshalText renders the action by name in JSON and YAML
func (a Action) MarshalText() ([]byte, error) {
	if a != Defense && a != Help {
		return nil, fmt.Errorf("invalid action %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText accepts "defense" or "help"
func (a *Action) UnmarshalText(text []byte) error {
	switch string(text) {
	case "defense":
		*a = Defense
	case "help":
		*a = Help
	default:
		return fmt.Errorf("invalid action %q", text)
	}
	return nil
}

// Assignment maps every switch of a snapshot to its action
type Assignment map[topology.NodeID]Action

// Clone returns an independent copy
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	for id, act := range a {
		out[id] = act
	}
	return out
}

// Equal reports whether both assignments hold the same actions
func (a Assignment) Equal(other Assignment) bool {
	if len(a) != len(other) {
		return false
	}
	for id, act := range a {
		if o, ok := other[id]; !ok || o != act {
			return false
		}
	}
	return true
}

// Active returns the switches assigned Help, in ascending id order
func (a Assignment) Active() []topology.NodeID {
	ids := make([]topology.NodeID, 0, len(a))
	for id, act := range a {
		if act == Help {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AllHelp assigns Help to every switch in the snapshot
func AllHelp(snap *topology.Snapshot) Assignment {
	a := make(Assignment, snap.NodeCount())
	for _, id := range snap.Nodes() {
		a[id] = Help
	}
	return a
}
