// Package sqlq builds the SQL that the relational ledgers share.
//
// Both ledgers keep transactions in a table `txs`
// with an increasing integer column `seq` giving posting order,
// and their tags in a table `tags` keyed by (tx_seq, pos).
package sqlq

import (
	"fmt"
	"strings"

	"github.com/clayledger/cs"
)

type builder struct {
	args []interface{}
}

func (b *builder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *builder) list(vals []string) string {
	ph := make([]string, 0, len(vals))
	for _, v := range vals {
		ph = append(ph, b.arg(v))
	}
	return strings.Join(ph, ", ")
}

// Select builds a statement producing seq, id, owner, and at
// for each transaction matching q,
// in q's order and limited to its page size.
func Select(q cs.Query) (string, []interface{}) {
	var (
		b     builder
		conds []string
	)
	if len(q.IDs) > 0 {
		ids := make([]string, 0, len(q.IDs))
		for _, id := range q.IDs {
			ids = append(ids, string(id))
		}
		conds = append(conds, "id IN ("+b.list(ids)+")")
	}
	if len(q.Owners) > 0 {
		conds = append(conds, "owner IN ("+b.list(q.Owners)+")")
	}
	for _, f := range q.Tags {
		if len(f.Values) == 0 {
			conds = append(conds, "FALSE")
			continue
		}
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM tags WHERE tags.tx_seq = txs.seq AND tags.name = %s AND tags.value IN (%s))",
			b.arg(f.Name), b.list(f.Values),
		))
	}

	dir, cmp := "ASC", ">"
	if q.Order == cs.Desc {
		dir, cmp = "DESC", "<"
	}
	if q.After != "" {
		// An unknown cursor yields NULL, which matches nothing.
		conds = append(conds, fmt.Sprintf("seq %s (SELECT seq FROM txs WHERE id = %s)", cmp, b.arg(string(q.After))))
	}

	var sb strings.Builder
	sb.WriteString("SELECT seq, id, owner, at FROM txs")
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY seq %s LIMIT %s", dir, b.arg(q.PageSize()))
	return sb.String(), b.args
}

// Tags builds a statement producing tx_seq, name, and value
// for every tag of the given transactions,
// in tag order.
func Tags(seqs []int64) (string, []interface{}) {
	var b builder
	ph := make([]string, 0, len(seqs))
	for _, s := range seqs {
		ph = append(ph, b.arg(s))
	}
	return "SELECT tx_seq, name, value FROM tags WHERE tx_seq IN (" + strings.Join(ph, ", ") + ") ORDER BY tx_seq, pos", b.args
}

// InsertTag is the statement adding one tag.
const InsertTag = `INSERT INTO tags (tx_seq, pos, name, value) VALUES ($1, $2, $3, $4)`

// SaveRef is the statement recording a reference.
// It never replaces the root of an existing reference.
const SaveRef = `
INSERT INTO refs (logical_id, root_tx, latest_tx, updated_at) VALUES ($1, $2, $3, $4)
  ON CONFLICT (logical_id) DO UPDATE SET latest_tx = excluded.latest_tx, updated_at = excluded.updated_at
`
