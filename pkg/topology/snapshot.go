package topology

import "fmt"

// Link is an undirected adjacency, normalized so that A <= B
type Link struct {
	A NodeID `json:"a" yaml:"a"`
	B NodeID `json:"b" yaml:"b"`
}

// NewLink returns the normalized link between two switches
func NewLink(a, b NodeID) Link {
	if b < a {
		a, b = b, a
	}
	return Link{A: a, B: b}
}

func (l Link) String() string {
	return fmt.Sprintf("%d-%d", l.A, l.B)
}

// Snapshot is a frozen view of the topology taken at one instant.
// It never changes after creation and may be shared between goroutines.
type Snapshot struct {
	nodes []NodeID
	adj   map[NodeID][]NodeID
	links int
}

// Nodes returns all switch ids in ascending order
func (s *Snapshot) Nodes() []NodeID {
	out := make([]NodeID, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Neighbors returns the neighbors of a switch in ascending order.
// The returned slice must not be modified.
func (s *Snapshot) Neighbors(id NodeID) []NodeID {
	return s.adj[id]
}

// Has reports whether the switch is part of the snapshot
func (s *Snapshot) Has(id NodeID) bool {
	_, ok := s.adj[id]
	return ok
}

// Degree returns the number of distinct neighbors of a switch
func (s *Snapshot) Degree(id NodeID) int {
	return len(s.adj[id])
}

// NodeCount returns the number of switches
func (s *Snapshot) NodeCount() int {
	return len(s.nodes)
}

// LinkCount returns the number of undirected links
func (s *Snapshot) LinkCount() int {
	return s.links
}

// Links returns every link once, sorted
func (s *Snapshot) Links() []Link {
	links := make([]Link, 0, s.links)
	for _, a := range s.nodes {
		for _, b := range s.adj[a] {
			if a < b {
				links = append(links, Link{A: a, B: b})
			}
		}
	}
	return links
}
