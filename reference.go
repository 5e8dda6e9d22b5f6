package cs

import (
	"sort"
	"time"
)

// Reference gives a logical document a stable identity
// on top of an append-only ledger.
// RootTxID names the first version ever stored and never changes.
// LatestTxID names the newest version.
type Reference struct {
	LogicalID  string    `json:"logicalId"`
	RootTxID   TxID      `json:"rootTxId"`
	LatestTxID TxID      `json:"latestTxId"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Update returns r with its latest transaction replaced.
// A zero r takes latest as its root too.
func (r Reference) Update(logicalID string, root, latest TxID, at time.Time) Reference {
	if r.RootTxID == "" {
		r.LogicalID = logicalID
		r.RootTxID = root
		if r.RootTxID == "" {
			r.RootTxID = latest
		}
	}
	r.LatestTxID = latest
	r.UpdatedAt = at
	return r
}

// FindVersion is a helper for finding the newest edge
// in a list of edges sorted oldest first
// whose timestamp is not later than `at`.
func FindVersion(edges []Edge, at time.Time) (Edge, error) {
	index := sort.Search(len(edges), func(n int) bool {
		return edges[n].At.After(at)
	})
	if index == 0 {
		return Edge{}, ErrNotFound
	}
	return edges[index-1], nil
}
