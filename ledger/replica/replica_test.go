package replica

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/ledger"
	"github.com/clayledger/cs/ledger/mem"
	"github.com/clayledger/cs/testutil"
)

func TestLedger(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(ctx, []cs.Ledger{mem.New(), mem.New()}, nil, 1)
	testutil.Ledger(ctx, t, l)
}

func TestReadWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := New(ctx, []cs.Ledger{mem.New(), mem.New()}, []cs.Ledger{mem.New()}, 1)
	testutil.ReadWrite(ctx, t, l, testutil.Document(100000))
}

func TestReplicas(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		m1 = mem.New()
		m2 = mem.New()
		m3 = mem.New()
		l  = New(ctx, []cs.Ledger{m1, m2}, []cs.Ledger{m3}, 1)
	)

	only1, err := m1.Post(ctx, &cs.Tx{Data: []byte("foo")})
	if err != nil {
		t.Fatal(err)
	}
	id, err := l.Post(ctx, &cs.Tx{Data: []byte("baz")})
	if err != nil {
		t.Fatal(err)
	}

	for name, m := range map[string]*mem.Ledger{"m1": m1, "m2": m2} {
		got, err := m.Fetch(ctx, id)
		if err != nil {
			t.Fatalf("%s: %s", name, err)
		}
		if diff := cmp.Diff([]byte("baz"), got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
		}
	}

	// The async replica catches up eventually.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := m3.Fetch(ctx, id); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("async replica never received the transaction")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Fetch finds a transaction held by any synchronous replica.
	got, err := l.Fetch(ctx, only1)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "foo" {
		t.Errorf("got %q, want foo", got)
	}

	_, err = l.Fetch(ctx, "nonexistent")
	if !errors.Is(err, cs.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestRegistry(t *testing.T) {
	conf := map[string]interface{}{
		"type": "replica",
		"sync": []interface{}{
			map[string]interface{}{"type": "mem"},
			map[string]interface{}{"type": "mem"},
		},
	}
	l, err := ledger.Create(context.Background(), "replica", conf)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(l.(*Ledger).sync); got != 2 {
		t.Errorf("got %d sync ledgers, want 2", got)
	}

	if _, err := ledger.Create(context.Background(), "replica", map[string]interface{}{}); err == nil {
		t.Error("created a replica with no sync ledgers")
	}
}
