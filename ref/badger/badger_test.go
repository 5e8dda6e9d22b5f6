package badger

import (
	"context"
	"testing"

	"github.com/clayledger/cs/testutil"
)

func TestRefs(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	testutil.Refs(context.Background(), t, s)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err = s.Save(ctx, "doc", "", "v1"); err != nil {
		t.Fatal(err)
	}
	if err = s.Save(ctx, "doc", "v1", "v2"); err != nil {
		t.Fatal(err)
	}
	if err = s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	r, err := s.Get(ctx, "doc")
	if err != nil {
		t.Fatal(err)
	}
	if r.RootTxID != "v1" || r.LatestTxID != "v2" {
		t.Errorf("after reopening got %+v", r)
	}
}
