package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/clayledger/cs"
)

// Ledger permits testing a ledger implementation.
// It posts some transactions,
// then checks fetching, filtering, ordering, and paging.
// The ledger must make posted transactions visible right away.
func Ledger(ctx context.Context, t *testing.T, l cs.Ledger) {
	var ids []cs.TxID
	for i := 0; i < 5; i++ {
		set := "even"
		if i%2 == 1 {
			set = "odd"
		}
		tx := &cs.Tx{
			Data:  []byte(fmt.Sprintf("body %d", i)),
			Owner: "owner",
			Nonce: uint64(i + 1),
			Tags: cs.Tags{
				{Name: cs.TagAppName, Value: "ledgertest"},
				{Name: cs.TagChunkSetID, Value: set},
				{Name: cs.TagChunkIndex, Value: fmt.Sprintf("%d", i)},
			},
		}
		id, err := l.Post(ctx, tx)
		if err != nil {
			t.Fatal(err)
		}
		if id != tx.ID() {
			t.Errorf("post %d returned id %s, want %s", i, id, tx.ID())
		}
		ids = append(ids, id)
	}

	t.Run("fetch", func(t *testing.T) {
		for i, id := range ids {
			got, err := l.Fetch(ctx, id)
			if err != nil {
				t.Fatal(err)
			}
			if want := []byte(fmt.Sprintf("body %d", i)); !bytes.Equal(got, want) {
				t.Errorf("fetched %q, want %q", got, want)
			}
		}
		_, err := l.Fetch(ctx, "no-such-transaction")
		if !errors.Is(err, cs.ErrNotFound) {
			t.Errorf("got %v for missing transaction, want ErrNotFound", err)
		}
	})

	query := func(t *testing.T, q cs.Query) []cs.TxID {
		t.Helper()
		edges, err := l.Query(ctx, q)
		if err != nil {
			t.Fatal(err)
		}
		var out []cs.TxID
		for _, e := range edges {
			out = append(out, e.ID)
		}
		return out
	}
	app := cs.Filter(cs.TagAppName, "ledgertest")

	cases := []struct {
		name string
		q    cs.Query
		want []cs.TxID
	}{
		{name: "all asc", q: cs.Query{Tags: []cs.TagFilter{app}}, want: ids},
		{name: "all desc", q: cs.Query{Tags: []cs.TagFilter{app}, Order: cs.Desc}, want: []cs.TxID{ids[4], ids[3], ids[2], ids[1], ids[0]}},
		{name: "odd", q: cs.Query{Tags: []cs.TagFilter{app, cs.Filter(cs.TagChunkSetID, "odd")}}, want: []cs.TxID{ids[1], ids[3]}},
		{name: "either", q: cs.Query{Tags: []cs.TagFilter{cs.Filter(cs.TagChunkSetID, "odd", "even")}, First: 2}, want: ids[:2]},
		{name: "newest", q: cs.Query{Tags: []cs.TagFilter{app}, First: 1, Order: cs.Desc}, want: ids[4:]},
		{name: "after", q: cs.Query{Tags: []cs.TagFilter{app}, After: ids[1], First: 2}, want: ids[2:4]},
		{name: "ids", q: cs.Query{IDs: []cs.TxID{ids[3], ids[0]}}, want: []cs.TxID{ids[0], ids[3]}},
		{name: "owner", q: cs.Query{Tags: []cs.TagFilter{app}, Owners: []string{"nobody"}}},
		{name: "none", q: cs.Query{Tags: []cs.TagFilter{cs.Filter(cs.TagChunkSetID, "neither")}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := query(t, c.q)
			if len(got) != len(c.want) {
				t.Fatalf("got %v, want %v", got, c.want)
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Fatalf("got %v, want %v", got, c.want)
				}
			}
		})
	}

	t.Run("tags", func(t *testing.T) {
		edges, err := l.Query(ctx, cs.Query{IDs: ids[2:3]})
		if err != nil {
			t.Fatal(err)
		}
		if len(edges) != 1 {
			t.Fatalf("got %d edges, want 1", len(edges))
		}
		if idx, ok := cs.ChunkIndex(edges[0].Tags); !ok || idx != 2 {
			t.Errorf("got tags %s", edges[0].Tags)
		}
		if edges[0].Owner != "owner" {
			t.Errorf("got owner %q", edges[0].Owner)
		}
	})

	t.Run("too large", func(t *testing.T) {
		_, err := l.Post(ctx, &cs.Tx{Data: make([]byte, cs.MaxTxSize+1)})
		if !errors.Is(err, cs.ErrTooLarge) {
			t.Errorf("got %v, want ErrTooLarge", err)
		}
	})
}
