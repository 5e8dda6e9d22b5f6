package pg

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/clayledger/cs/testutil"
)

func TestLedger(t *testing.T) {
	withStore(t, func(ctx context.Context, store *Store) {
		testutil.Ledger(ctx, t, store)
	})
}

func TestReadWrite(t *testing.T) {
	withStore(t, func(ctx context.Context, store *Store) {
		testutil.ReadWrite(ctx, t, store, testutil.Document(60000))
	})
}

func TestRefs(t *testing.T) {
	withStore(t, func(ctx context.Context, store *Store) {
		testutil.Refs(ctx, t, store)
	})
}

const connVar = "CS_PG_TESTING_CONN"

// withStore runs f against freshly created tables.
func withStore(t *testing.T, f func(context.Context, *Store)) {
	connstr := os.Getenv(connVar)
	if connstr == "" {
		t.Skipf("to run %s, set %s to a valid Postgresql connection string", t.Name(), connVar)
	}

	db, err := sql.Open("postgres", connstr)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS tags, txs, refs`); err != nil {
		t.Fatal(err)
	}
	store, err := New(ctx, db)
	if err != nil {
		t.Fatal(err)
	}

	f(ctx, store)
}
