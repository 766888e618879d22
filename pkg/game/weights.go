package game

import (
	"sort"

	"github.com/xhedwig/ofdp-sdg/pkg/topology"
)

// Weights maps each switch to 2*degree+1
type Weights map[topology.NodeID]int

// ComputeWeights weighs every switch of the snapshot, isolated ones
// included. Weights are always odd and positive.
func ComputeWeights(snap *topology.Snapshot) Weights {
	w := make(Weights, snap.NodeCount())
	for _, id := range snap.Nodes() {
		w[id] = 2*snap.Degree(id) + 1
	}
	return w
}

// Score sums the weights of the switches set to Help
func (w Weights) Score(a Assignment) int {
	score := 0
	for id, act := range a {
		if act == Help {
			score += w[id]
		}
	}
	return score
}

// Order returns the switches by descending weight, ties by ascending id
func (w Weights) Order() []topology.NodeID {
	ids := make([]topology.NodeID, 0, len(w))
	for id := range w {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if w[ids[i]] != w[ids[j]] {
			return w[ids[i]] > w[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}
