package ledger

import "github.com/clayledger/cs"

// Match tells whether the transaction with the given id, owner, and tags
// satisfies q's criteria.
// Ordering, paging, and the cursor are not considered here;
// see Page.
func Match(q cs.Query, id cs.TxID, owner string, tags cs.Tags) bool {
	if len(q.IDs) > 0 && !containsID(q.IDs, id) {
		return false
	}
	if len(q.Owners) > 0 && !containsString(q.Owners, owner) {
		return false
	}
	for _, f := range q.Tags {
		if !matchFilter(f, tags) {
			return false
		}
	}
	return true
}

func matchFilter(f cs.TagFilter, tags cs.Tags) bool {
	for _, t := range tags {
		if t.Name == f.Name && containsString(f.Values, t.Value) {
			return true
		}
	}
	return false
}

// Page applies q's order, cursor, and page size
// to matching edges given oldest first.
// The input slice is not modified.
func Page(q cs.Query, edges []cs.Edge) []cs.Edge {
	ordered := make([]cs.Edge, len(edges))
	if q.Order == cs.Desc {
		for i, e := range edges {
			ordered[len(edges)-1-i] = e
		}
	} else {
		copy(ordered, edges)
	}

	if q.After != "" {
		pos := -1
		for i, e := range ordered {
			if e.ID == q.After {
				pos = i
				break
			}
		}
		if pos < 0 {
			return nil
		}
		ordered = ordered[pos+1:]
	}

	if n := q.PageSize(); len(ordered) > n {
		ordered = ordered[:n]
	}
	return ordered
}

func containsID(ids []cs.TxID, id cs.TxID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func containsString(vals []string, s string) bool {
	for _, v := range vals {
		if v == s {
			return true
		}
	}
	return false
}
