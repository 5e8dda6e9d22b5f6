package transform

import (
	"bytes"
	"context"
	"testing"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/ledger/mem"
	"github.com/clayledger/cs/testutil"
)

func testSeal(t *testing.T) Seal {
	t.Helper()
	s, err := NewSeal(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestTransform(t *testing.T) {
	ctx := context.Background()

	t.Run("seal", func(t *testing.T) {
		testutil.ReadWrite(ctx, t, New(mem.New(), testSeal(t)), testutil.Document(80000))
	})
}

func TestSealHidesBody(t *testing.T) {
	var (
		ctx    = context.Background()
		nested = mem.New()
		l      = New(nested, testSeal(t))
		body   = []byte(`{"secret":"value"}`)
	)

	id, err := l.Post(ctx, &cs.Tx{Data: body})
	if err != nil {
		t.Fatal(err)
	}
	stored, err := nested.Fetch(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(stored, []byte("secret")) {
		t.Error("stored body contains plaintext")
	}
	got, err := l.Fetch(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("got %q, want %q", got, body)
	}

	wrongKey, err := NewSeal(bytes.Repeat([]byte{8}, 32))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = New(nested, wrongKey).Fetch(ctx, id); err == nil {
		t.Error("expected an error opening with the wrong key")
	}
}

func TestBadKey(t *testing.T) {
	if _, err := NewSeal([]byte("short")); err == nil {
		t.Error("expected an error for a short key")
	}
}
