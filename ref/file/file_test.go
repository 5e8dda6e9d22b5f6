package file

import (
	"context"
	"os"
	"testing"

	"github.com/clayledger/cs/testutil"
)

func TestRefs(t *testing.T) {
	dirname, err := os.MkdirTemp("", "filerefs")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dirname)

	testutil.Refs(context.Background(), t, New(dirname))
}

func TestOddIDs(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	for _, id := range []string{"a/b", "../up", "spaces and ünïcode"} {
		if err := s.Save(ctx, id, "", "tx"); err != nil {
			t.Fatal(err)
		}
		r, err := s.Get(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if r.LogicalID != id {
			t.Errorf("got logical id %q, want %q", r.LogicalID, id)
		}
	}
}
