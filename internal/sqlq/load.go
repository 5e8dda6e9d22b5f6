package sqlq

import (
	"context"
	"database/sql"
	"time"

	"github.com/bobg/sqlutil"
	"github.com/pkg/errors"

	"github.com/clayledger/cs"
)

// Time scans a timestamp stored either natively
// or as cs.TimeFormat text.
type Time struct {
	time.Time
}

// Scan implements sql.Scanner.
func (t *Time) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	}
	return errors.Errorf("cannot scan %T into a time", src)
}

func (t *Time) parse(s string) error {
	parsed, err := time.Parse(cs.TimeFormat, s)
	if err != nil {
		return errors.Wrapf(err, "parsing time %s", s)
	}
	t.Time = parsed
	return nil
}

// Query runs Select(q) and Tags against db
// and assembles the resulting edges.
func Query(ctx context.Context, db *sql.DB, q cs.Query) ([]cs.Edge, error) {
	var (
		edges []cs.Edge
		seqs  []int64
	)
	query, args := Select(q)
	args = append(args, func(seq int64, id cs.TxID, owner string, at Time) {
		seqs = append(seqs, seq)
		edges = append(edges, cs.Edge{ID: id, Owner: owner, At: at.Time})
	})
	if err := sqlutil.ForQueryRows(ctx, db, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying transactions")
	}
	if len(edges) == 0 {
		return nil, nil
	}

	pos := make(map[int64]int, len(seqs))
	for i, seq := range seqs {
		pos[seq] = i
	}
	query, args = Tags(seqs)
	args = append(args, func(seq int64, name, value string) {
		i := pos[seq]
		edges[i].Tags = append(edges[i].Tags, cs.Tag{Name: name, Value: value})
	})
	err := sqlutil.ForQueryRows(ctx, db, query, args...)
	return edges, errors.Wrap(err, "querying tags")
}

// InsertTags adds tx's tags for the transaction numbered seq.
func InsertTags(ctx context.Context, tx *sql.Tx, seq int64, tags cs.Tags) error {
	for i, t := range tags {
		if _, err := tx.ExecContext(ctx, InsertTag, seq, i, t.Name, t.Value); err != nil {
			return errors.Wrapf(err, "inserting tag %s", t.Name)
		}
	}
	return nil
}

// GetRef reads one row of the refs table.
func GetRef(ctx context.Context, db *sql.DB, logicalID string) (cs.Reference, error) {
	const q = `SELECT root_tx, latest_tx, updated_at FROM refs WHERE logical_id = $1`

	var (
		r  = cs.Reference{LogicalID: logicalID}
		at Time
	)
	err := db.QueryRowContext(ctx, q, logicalID).Scan(&r.RootTxID, &r.LatestTxID, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return cs.Reference{}, cs.ErrNotFound
	}
	if err != nil {
		return cs.Reference{}, errors.Wrapf(err, "getting reference %s", logicalID)
	}
	r.UpdatedAt = at.Time
	return r, nil
}

// ListRefs calls f for each row of the refs table after start.
func ListRefs(ctx context.Context, db *sql.DB, start string, f func(cs.Reference) error) error {
	const q = `SELECT logical_id, root_tx, latest_tx, updated_at FROM refs WHERE logical_id > $1 ORDER BY logical_id`
	return sqlutil.ForQueryRows(ctx, db, q, start, func(id string, root, latest cs.TxID, at Time) error {
		return f(cs.Reference{LogicalID: id, RootTxID: root, LatestTxID: latest, UpdatedAt: at.Time})
	})
}
