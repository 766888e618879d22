package topology

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// NodeID identifies a switch (its datapath id)
type NodeID uint64

// Graph is the live switch topology as learned by discovery.
// Links are undirected: recording a->b also makes a a neighbor of b.
// Safe for concurrent use; readers should work on a Snapshot.
type Graph struct {
	mu     sync.RWMutex
	graph  *simple.UndirectedGraph
	ids    map[NodeID]int64 // Map from switch id to graph ID
	nodes  map[int64]NodeID // Map from graph ID back to switch id
	nextID int64
}

// NewGraph creates a new empty topology graph
func NewGraph() *Graph {
	return &Graph{
		graph: simple.NewUndirectedGraph(),
		ids:   make(map[NodeID]int64),
		nodes: make(map[int64]NodeID),
	}
}

// AddNode registers a switch. Returns false if it was already known.
func (g *Graph) AddNode(id NodeID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addNode(id)
}

func (g *Graph) addNode(id NodeID) bool {
	if _, exists := g.ids[id]; exists {
		return false
	}

	g.ids[id] = g.nextID
	g.nodes[g.nextID] = id
	g.graph.AddNode(simple.Node(g.nextID))
	g.nextID++
	return true
}

// RemoveNode removes a switch and every link touching it
func (g *Graph) RemoveNode(id NodeID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.removeNode(id)
}

func (g *Graph) removeNode(id NodeID) bool {
	gid, exists := g.ids[id]
	if !exists {
		return false
	}
	g.graph.RemoveNode(gid)
	delete(g.ids, id)
	delete(g.nodes, gid)
	return true
}

// HasNode reports whether the switch is registered
func (g *Graph) HasNode(id NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, exists := g.ids[id]
	return exists
}

// AddLink records an adjacency between a and b.
// Both switches must already be registered, otherwise an *UnknownNodeError
// is returned. Recording an existing link (in either direction) is a no-op
// and reports false. Self links are ignored.
func (g *Graph) AddLink(a, b NodeID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addLink(a, b)
}

func (g *Graph) addLink(a, b NodeID) (bool, error) {
	aID, ok := g.ids[a]
	if !ok {
		return false, &UnknownNodeError{Node: a}
	}
	bID, ok := g.ids[b]
	if !ok {
		return false, &UnknownNodeError{Node: b}
	}
	if a == b || g.graph.HasEdgeBetween(aID, bID) {
		return false, nil
	}

	g.graph.SetEdge(g.graph.NewEdge(g.graph.Node(aID), g.graph.Node(bID)))
	return true, nil
}

// RemoveLink forgets the adjacency between a and b
func (g *Graph) RemoveLink(a, b NodeID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.removeLink(a, b)
}

func (g *Graph) removeLink(a, b NodeID) bool {
	aID, okA := g.ids[a]
	bID, okB := g.ids[b]
	if !okA || !okB || !g.graph.HasEdgeBetween(aID, bID) {
		return false
	}
	g.graph.RemoveEdge(aID, bID)
	return true
}

// Degree returns the number of distinct neighbors of a switch
func (g *Graph) Degree(id NodeID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	gid, exists := g.ids[id]
	if !exists {
		return 0
	}
	return g.graph.From(gid).Len()
}

// NodeCount returns the number of registered switches
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.ids)
}

// LinkCount returns the number of undirected links
func (g *Graph) LinkCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.graph.Edges().Len()
}

// Snapshot takes an immutable copy of the current topology
func (g *Graph) Snapshot() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := &Snapshot{
		nodes: make([]NodeID, 0, len(g.ids)),
		adj:   make(map[NodeID][]NodeID, len(g.ids)),
	}
	for id, gid := range g.ids {
		snap.nodes = append(snap.nodes, id)

		neighbors := make([]NodeID, 0)
		iter := g.graph.From(gid)
		for iter.Next() {
			neighbors = append(neighbors, g.nodes[iter.Node().ID()])
		}
		sortIDs(neighbors)
		snap.adj[id] = neighbors
		snap.links += len(neighbors)
	}
	sortIDs(snap.nodes)
	snap.links /= 2

	return snap
}

// Components returns the connected components of the topology, each sorted,
// ordered by their smallest switch id
func (g *Graph) Components() [][]NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ccs := topo.ConnectedComponents(g.graph)
	result := make([][]NodeID, 0, len(ccs))
	for _, cc := range ccs {
		ids := make([]NodeID, 0, len(cc))
		for _, n := range cc {
			ids = append(ids, g.nodes[n.ID()])
		}
		sortIDs(ids)
		result = append(result, ids)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i][0] < result[j][0]
	})
	return result
}

// Apply mutates the graph by a Diff in one step, so concurrent snapshots
// observe either the old or the new topology.
// Nodes are added first and removed last, so links may reference nodes
// introduced by the same diff.
func (g *Graph) Apply(d Diff) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	added := make(map[NodeID]bool, len(d.AddedNodes))
	for _, id := range d.AddedNodes {
		added[id] = true
	}
	for _, l := range d.AddedLinks {
		for _, end := range []NodeID{l.A, l.B} {
			if _, exists := g.ids[end]; !exists && !added[end] {
				return &UnknownNodeError{Node: end}
			}
		}
	}

	for _, id := range d.AddedNodes {
		g.addNode(id)
	}
	for _, l := range d.RemovedLinks {
		g.removeLink(l.A, l.B)
	}
	for _, l := range d.AddedLinks {
		if _, err := g.addLink(l.A, l.B); err != nil {
			return err
		}
	}
	for _, id := range d.RemovedNodes {
		g.removeNode(id)
	}
	return nil
}

func sortIDs(ids []NodeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
