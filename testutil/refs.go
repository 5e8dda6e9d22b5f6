package testutil

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/ref"
)

// Refs permits testing a reference store implementation.
// It saves an initial version and a series of updates,
// checking that the root never moves
// and that the latest always follows the newest save.
func Refs(ctx context.Context, t *testing.T, s ref.Store) {
	const (
		id1 = "project-1"
		id2 = "project-2"
	)

	_, err := s.Get(ctx, id1)
	if !errors.Is(err, cs.ErrNotFound) {
		t.Fatalf("got %v for missing reference, want ErrNotFound", err)
	}

	err = s.Save(ctx, id1, "", "root-1")
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, id1)
	if err != nil {
		t.Fatal(err)
	}
	if got.LogicalID != id1 || got.RootTxID != "root-1" || got.LatestTxID != "root-1" {
		t.Fatalf("after first save got %+v", got)
	}

	for i := 1; i <= 5; i++ {
		latest := cs.TxID(fmt.Sprintf("version-%d", i))
		err = s.Save(ctx, id1, "root-1", latest)
		if err != nil {
			t.Fatal(err)
		}
		got, err = s.Get(ctx, id1)
		if err != nil {
			t.Fatal(err)
		}
		if got.RootTxID != "root-1" {
			t.Errorf("update %d: root is %s, want root-1", i, got.RootTxID)
		}
		if got.LatestTxID != latest {
			t.Errorf("update %d: latest is %s, want %s", i, got.LatestTxID, latest)
		}
	}

	// A root passed for an existing reference is ignored.
	err = s.Save(ctx, id1, "other-root", "version-6")
	if err != nil {
		t.Fatal(err)
	}
	got, err = s.Get(ctx, id1)
	if err != nil {
		t.Fatal(err)
	}
	if got.RootTxID != "root-1" {
		t.Errorf("root replaced by %s", got.RootTxID)
	}

	err = s.Save(ctx, id2, "root-2", "latest-2")
	if err != nil {
		t.Fatal(err)
	}
	got, err = s.Get(ctx, id2)
	if err != nil {
		t.Fatal(err)
	}
	if got.RootTxID != "root-2" || got.LatestTxID != "latest-2" {
		t.Errorf("second reference is %+v", got)
	}

	if l, ok := s.(ref.Lister); ok {
		var ids []string
		err = l.List(ctx, "", func(r cs.Reference) error {
			ids = append(ids, r.LogicalID)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(ids) != 2 || ids[0] != id1 || ids[1] != id2 {
			t.Errorf("listed %v, want [%s %s]", ids, id1, id2)
		}

		ids = nil
		err = l.List(ctx, id1, func(r cs.Reference) error {
			ids = append(ids, r.LogicalID)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(ids) != 1 || ids[0] != id2 {
			t.Errorf("listed %v after %s, want [%s]", ids, id1, id2)
		}
	}
}
