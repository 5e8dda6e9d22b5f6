// Package pg implements a ledger and a reference store
// on a Postgresql database.
package pg

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq" // register the postgres type for sql.Open
	"github.com/pkg/errors"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/internal/param"
	"github.com/clayledger/cs/internal/sqlq"
	"github.com/clayledger/cs/ledger"
	"github.com/clayledger/cs/ref"
)

var (
	_ cs.Ledger  = &Store{}
	_ ref.Store  = &Store{}
	_ ref.Lister = &Store{}
)

// Store is a Postgresql-based ledger and reference store.
type Store struct {
	db *sql.DB
}

// Schema is the SQL that New executes.
// It creates the `txs`, `tags`, and `refs` tables if they do not exist.
// (If they do exist, they must have the columns, constraints, and indexing described here.)
const Schema = `
CREATE TABLE IF NOT EXISTS txs (
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL UNIQUE,
  data BYTEA NOT NULL,
  owner TEXT NOT NULL,
  nonce BIGINT NOT NULL,
  signature BYTEA,
  at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tags (
  tx_seq BIGINT NOT NULL REFERENCES txs (seq),
  pos INTEGER NOT NULL,
  name TEXT NOT NULL,
  value TEXT NOT NULL,
  PRIMARY KEY (tx_seq, pos)
);

CREATE INDEX IF NOT EXISTS tag_idx ON tags (name, value);

CREATE TABLE IF NOT EXISTS refs (
  logical_id TEXT PRIMARY KEY NOT NULL,
  root_tx TEXT NOT NULL,
  latest_tx TEXT NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL
);
`

// New produces a new Store using `db` for storage.
// It expects to create tables `txs`, `tags`, and `refs`,
// or for those tables already to exist with the correct schema.
// (See variable Schema.)
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	_, err := db.ExecContext(ctx, Schema)
	return &Store{db: db}, err
}

// Post implements cs.Ledger.
// The database clock supplies the transaction timestamp.
func (s *Store) Post(ctx context.Context, tx *cs.Tx) (cs.TxID, error) {
	if err := ledger.CheckTx(tx); err != nil {
		return "", err
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "beginning db transaction")
	}
	defer dbtx.Rollback()

	const q = `INSERT INTO txs (id, data, owner, nonce, signature) VALUES ($1, $2, $3, $4, $5) RETURNING seq`

	var (
		id  = tx.ID()
		seq int64
	)
	err = dbtx.QueryRowContext(ctx, q, id, tx.Data, tx.Owner, int64(tx.Nonce), tx.Signature).Scan(&seq)
	if err != nil {
		return "", errors.Wrapf(err, "inserting transaction %s", id)
	}
	if err = sqlq.InsertTags(ctx, dbtx, seq, tx.Tags); err != nil {
		return "", err
	}
	return id, errors.Wrap(dbtx.Commit(), "committing")
}

// Fetch implements cs.Getter.
func (s *Store) Fetch(ctx context.Context, id cs.TxID) ([]byte, error) {
	const q = `SELECT data FROM txs WHERE id = $1`

	var result []byte
	err := s.db.QueryRowContext(ctx, q, id).Scan(&result)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cs.ErrNotFound
	}
	return result, err
}

// Query implements cs.Getter.
func (s *Store) Query(ctx context.Context, q cs.Query) ([]cs.Edge, error) {
	return sqlq.Query(ctx, s.db, q)
}

// Get implements ref.Getter.
func (s *Store) Get(ctx context.Context, logicalID string) (cs.Reference, error) {
	return sqlq.GetRef(ctx, s.db, logicalID)
}

// Save implements ref.Store.
func (s *Store) Save(ctx context.Context, logicalID string, root, latest cs.TxID) error {
	if root == "" {
		root = latest
	}
	_, err := s.db.ExecContext(ctx, sqlq.SaveRef, logicalID, root, latest, ref.Now())
	return err
}

// List implements ref.Lister.
func (s *Store) List(ctx context.Context, start string, f func(cs.Reference) error) error {
	const q = `SELECT logical_id, root_tx, latest_tx, updated_at FROM refs WHERE logical_id > $1 ORDER BY logical_id`
	rows, err := s.db.QueryContext(ctx, q, start)
	if err != nil {
		return errors.Wrap(err, "querying starting position")
	}
	defer rows.Close()

	for rows.Next() {
		var r cs.Reference
		err := rows.Scan(&r.LogicalID, &r.RootTxID, &r.LatestTxID, &r.UpdatedAt)
		if err != nil {
			return errors.Wrap(err, "scanning query result")
		}
		if err := f(r); err != nil {
			return err
		}
	}
	return errors.Wrap(rows.Err(), "iterating over result rows")
}

func open(ctx context.Context, conf map[string]interface{}) (*Store, error) {
	conn, err := param.RequireString(conf, "conn")
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", conn)
	if err != nil {
		return nil, errors.Wrap(err, "opening db")
	}
	return New(ctx, db)
}

func init() {
	ledger.Register("pg", func(ctx context.Context, conf map[string]interface{}) (cs.Ledger, error) {
		return open(ctx, conf)
	})
	ref.Register("pg", func(ctx context.Context, conf map[string]interface{}) (ref.Store, error) {
		return open(ctx, conf)
	})
}
