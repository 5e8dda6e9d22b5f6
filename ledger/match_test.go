package ledger

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/clayledger/cs"
)

func TestMatch(t *testing.T) {
	tags := cs.Tags{{Name: "App-Name", Value: "clay"}, {Name: "Chunk-Set-ID", Value: "s1"}}

	cases := []struct {
		name string
		q    cs.Query
		want bool
	}{
		{name: "empty", want: true},
		{name: "tag", q: cs.Query{Tags: []cs.TagFilter{cs.Filter("Chunk-Set-ID", "s0", "s1")}}, want: true},
		{name: "tag miss", q: cs.Query{Tags: []cs.TagFilter{cs.Filter("Chunk-Set-ID", "s2")}}},
		{name: "all tags", q: cs.Query{Tags: []cs.TagFilter{cs.Filter("App-Name", "clay"), cs.Filter("Chunk-Set-ID", "s1")}}, want: true},
		{name: "one of two", q: cs.Query{Tags: []cs.TagFilter{cs.Filter("App-Name", "other"), cs.Filter("Chunk-Set-ID", "s1")}}},
		{name: "id", q: cs.Query{IDs: []cs.TxID{"a", "tx"}}, want: true},
		{name: "id miss", q: cs.Query{IDs: []cs.TxID{"a"}}},
		{name: "owner", q: cs.Query{Owners: []string{"me"}}, want: true},
		{name: "owner miss", q: cs.Query{Owners: []string{"you"}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Match(c.q, "tx", "me", tags); got != c.want {
				t.Errorf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestPage(t *testing.T) {
	now := time.Now()
	var edges []cs.Edge
	for _, id := range []cs.TxID{"a", "b", "c", "d", "e"} {
		edges = append(edges, cs.Edge{ID: id, At: now})
		now = now.Add(time.Second)
	}

	ids := func(edges []cs.Edge) []cs.TxID {
		var out []cs.TxID
		for _, e := range edges {
			out = append(out, e.ID)
		}
		return out
	}

	cases := []struct {
		name string
		q    cs.Query
		want []cs.TxID
	}{
		{name: "asc", q: cs.Query{}, want: []cs.TxID{"a", "b", "c", "d", "e"}},
		{name: "desc", q: cs.Query{Order: cs.Desc}, want: []cs.TxID{"e", "d", "c", "b", "a"}},
		{name: "first", q: cs.Query{First: 2}, want: []cs.TxID{"a", "b"}},
		{name: "desc first", q: cs.Query{First: 1, Order: cs.Desc}, want: []cs.TxID{"e"}},
		{name: "after", q: cs.Query{After: "b", First: 2}, want: []cs.TxID{"c", "d"}},
		{name: "desc after", q: cs.Query{After: "b", Order: cs.Desc}, want: []cs.TxID{"a"}},
		{name: "unknown cursor", q: cs.Query{After: "z"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if diff := cmp.Diff(c.want, ids(Page(c.q, edges))); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEnvelope(t *testing.T) {
	tx := &cs.Tx{Data: []byte("body"), Tags: cs.Tags{{Name: "a", Value: "b"}}, Owner: "me", Nonce: 4}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	b, err := NewEnvelope(tx, at).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	e, err := UnmarshalEnvelope(b)
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != tx.ID() || string(e.Data) != "body" || !e.At.Equal(at) {
		t.Errorf("got %+v", e)
	}
	if diff := cmp.Diff(tx.Tags, e.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}
