package sqlq

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/clayledger/cs"
)

func TestSelect(t *testing.T) {
	cases := []struct {
		name     string
		q        cs.Query
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "empty",
			wantSQL:  "SELECT seq, id, owner, at FROM txs ORDER BY seq ASC LIMIT $1",
			wantArgs: []interface{}{100},
		},
		{
			name: "tags",
			q: cs.Query{
				Tags:  []cs.TagFilter{cs.Filter("A", "x", "y")},
				First: 1,
				Order: cs.Desc,
			},
			wantSQL:  "SELECT seq, id, owner, at FROM txs WHERE EXISTS (SELECT 1 FROM tags WHERE tags.tx_seq = txs.seq AND tags.name = $1 AND tags.value IN ($2, $3)) ORDER BY seq DESC LIMIT $4",
			wantArgs: []interface{}{"A", "x", "y", 1},
		},
		{
			name: "ids owners after",
			q: cs.Query{
				IDs:    []cs.TxID{"a", "b"},
				Owners: []string{"o"},
				After:  "a",
			},
			wantSQL:  "SELECT seq, id, owner, at FROM txs WHERE id IN ($1, $2) AND owner IN ($3) AND seq > (SELECT seq FROM txs WHERE id = $4) ORDER BY seq ASC LIMIT $5",
			wantArgs: []interface{}{"a", "b", "o", "a", 100},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			gotSQL, gotArgs := Select(c.q)
			if gotSQL != c.wantSQL {
				t.Errorf("got SQL\n  %s\nwant\n  %s", gotSQL, c.wantSQL)
			}
			if diff := cmp.Diff(c.wantArgs, gotArgs); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTags(t *testing.T) {
	gotSQL, gotArgs := Tags([]int64{3, 7})
	const want = "SELECT tx_seq, name, value FROM tags WHERE tx_seq IN ($1, $2) ORDER BY tx_seq, pos"
	if gotSQL != want {
		t.Errorf("got %s, want %s", gotSQL, want)
	}
	if diff := cmp.Diff([]interface{}{int64(3), int64(7)}, gotArgs); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}
