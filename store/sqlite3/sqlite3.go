// Package sqlite3 implements a ledger and a reference store
// on a Sqlite database.
package sqlite3

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3" // register the sqlite3 type for sql.Open
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

// Store is a Sqlite-based ledger and reference store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Schema is the SQL that New executes.
// It creates the `txs`, `tags`, and `refs` tables if they do not exist.
// (If they do exist, they must have the columns, constraints, and indexing described here.)
const Schema = `
CREATE TABLE IF NOT EXISTS txs (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  data BLOB NOT NULL,
  owner TEXT NOT NULL,
  nonce INTEGER NOT NULL,
  signature BLOB,
  at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
  tx_seq INTEGER NOT NULL,
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
  updated_at TEXT NOT NULL
);
`

// New produces a new Store using `db` for storage.
// It expects to create tables `txs`, `tags`, and `refs`,
// or for those tables already to exist with the correct schema.
// (See variable Schema.)
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	_, err := db.ExecContext(ctx, Schema)
	return &Store{db: db, now: time.Now}, err
}

// Post implements cs.Ledger.
func (s *Store) Post(ctx context.Context, tx *cs.Tx) (cs.TxID, error) {
	if err := ledger.CheckTx(tx); err != nil {
		return "", err
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "beginning db transaction")
	}
	defer dbtx.Rollback()

	const q = `INSERT INTO txs (id, data, owner, nonce, signature, at) VALUES ($1, $2, $3, $4, $5, $6)`

	id := tx.ID()
	res, err := dbtx.ExecContext(ctx, q, id, tx.Data, tx.Owner, int64(tx.Nonce), tx.Signature, s.now().UTC().Format(cs.TimeFormat))
	if err != nil {
		return "", errors.Wrapf(err, "inserting transaction %s", id)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return "", errors.Wrap(err, "getting transaction sequence number")
	}
	if err = sqlq.InsertTags(ctx, dbtx, seq, tx.Tags); err != nil {
		return "", err
	}
	return id, errors.Wrap(dbtx.Commit(), "committing")
}

// Fetch implements cs.Getter.
func (s *Store) Fetch(ctx context.Context, id cs.TxID) ([]byte, error) {
	const q = `SELECT data FROM txs WHERE id = $1`

	var data []byte
	err := s.db.QueryRowContext(ctx, q, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cs.ErrNotFound
	}
	return data, errors.Wrapf(err, "fetching %s", id)
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
	_, err := s.db.ExecContext(ctx, sqlq.SaveRef, logicalID, root, latest, ref.Now().UTC().Format(cs.TimeFormat))
	return errors.Wrapf(err, "saving reference %s", logicalID)
}

// List implements ref.Lister.
func (s *Store) List(ctx context.Context, start string, f func(cs.Reference) error) error {
	return sqlq.ListRefs(ctx, s.db, start, f)
}

func open(ctx context.Context, conf map[string]interface{}) (*Store, error) {
	conn, err := param.RequireString(conf, "conn")
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", conn)
	if err != nil {
		return nil, errors.Wrap(err, "opening db")
	}
	return New(ctx, db)
}

func init() {
	ledger.Register("sqlite3", func(ctx context.Context, conf map[string]interface{}) (cs.Ledger, error) {
		return open(ctx, conf)
	})
	ref.Register("sqlite3", func(ctx context.Context, conf map[string]interface{}) (ref.Store, error) {
		return open(ctx, conf)
	})
}
