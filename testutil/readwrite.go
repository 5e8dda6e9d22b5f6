package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/codec"
	"github.com/clayledger/cs/locate"
	"github.com/clayledger/cs/signer"
	"github.com/clayledger/cs/upload"
)

// ReadWrite permits testing a ledger implementation
// by uploading a document as a chunk set,
// then downloading it both through its manifest and by query
// to make sure it's the same.
func ReadWrite(ctx context.Context, t *testing.T, l cs.Ledger, doc string) {
	s, err := signer.Generate()
	if err != nil {
		t.Fatal(err)
	}
	u := upload.New(l, s)
	defer u.Close()

	payloads, err := codec.Encode(doc, 4096)
	if err != nil {
		t.Fatal(err)
	}

	t1 := time.Now()
	tc := cs.TagContext{App: "readwrite", Kind: cs.KindProject, LogicalID: "rw", Author: s.Owner()}
	res, err := u.UploadChunkSet(ctx, payloads, tc, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("wrote %d bytes in %d chunks in %s", len(doc), len(payloads), time.Since(t1))

	loc := locate.New(l)

	t2 := time.Now()
	got, err := loc.Download(ctx, res.ManifestID, codec.Decoder{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("read %d bytes in %s", len(got), time.Since(t2))
	compare(t, got, doc)

	got, err = loc.DownloadChunkSet(ctx, payloads[0].ChunkSetID, len(payloads), codec.Decoder{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	compare(t, got, doc)
}

func compare(t *testing.T, got, want string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("got length %d, want %d", len(got), len(want))
		return
	}
	for i := 0; i < len(got); i++ {
		if got[i] != want[i] {
			t.Fatalf("mismatch at position %d (of %d)", i, len(got))
		}
	}
}

// Document is a JSON document of roughly n bytes for use in tests.
func Document(n int) string {
	const unit = `{"x":1.25,"y":-0.5,"z":3},`
	buf := make([]byte, 0, n+len(unit))
	buf = append(buf, `{"vertices":[`...)
	for len(buf) < n {
		buf = append(buf, unit...)
	}
	buf = append(buf, `{}]}`...)
	return string(buf)
}
