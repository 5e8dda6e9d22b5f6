package lru

import (
	"context"
	"testing"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/ledger/mem"
	"github.com/clayledger/cs/testutil"
)

func TestLedger(t *testing.T) {
	l, err := New(mem.New(), 1000)
	if err != nil {
		t.Fatal(err)
	}
	testutil.Ledger(context.Background(), t, l)
}

func TestReadWrite(t *testing.T) {
	l, err := New(mem.New(), 1000)
	if err != nil {
		t.Fatal(err)
	}
	testutil.ReadWrite(context.Background(), t, l, testutil.Document(100000))
}

type countingLedger struct {
	cs.Ledger
	fetches int
}

func (c *countingLedger) Fetch(ctx context.Context, id cs.TxID) ([]byte, error) {
	c.fetches++
	return c.Ledger.Fetch(ctx, id)
}

func TestCaching(t *testing.T) {
	ctx := context.Background()
	nested := &countingLedger{Ledger: mem.New()}
	l, err := New(nested, 1)
	if err != nil {
		t.Fatal(err)
	}

	id1, err := l.Post(ctx, &cs.Tx{Data: []byte("one")})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err = l.Fetch(ctx, id1); err != nil {
			t.Fatal(err)
		}
	}
	if nested.fetches != 0 {
		t.Errorf("got %d nested fetches, want 0", nested.fetches)
	}

	// Evicts id1.
	if _, err = l.Post(ctx, &cs.Tx{Data: []byte("two")}); err != nil {
		t.Fatal(err)
	}
	got, err := l.Fetch(ctx, id1)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "one" {
		t.Errorf("got %q, want one", got)
	}
	if nested.fetches != 1 {
		t.Errorf("got %d nested fetches, want 1", nested.fetches)
	}
}
