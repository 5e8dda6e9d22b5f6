package upload

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/codec"
	"github.com/clayledger/cs/confirm"
	"github.com/clayledger/cs/ledger/mem"
	"github.com/clayledger/cs/signer"
)

// flakyLedger fails the post numbered failAt (1-based)
// and records the largest number of concurrent posts.
type flakyLedger struct {
	cs.Ledger
	failAt   int32
	posts    int32
	inflight int32
	maxIn    int32
}

var errInjected = errors.New("injected failure")

func (l *flakyLedger) Post(ctx context.Context, tx *cs.Tx) (cs.TxID, error) {
	n := atomic.AddInt32(&l.inflight, 1)
	defer atomic.AddInt32(&l.inflight, -1)
	for {
		max := atomic.LoadInt32(&l.maxIn)
		if n <= max || atomic.CompareAndSwapInt32(&l.maxIn, max, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)

	if atomic.AddInt32(&l.posts, 1) == l.failAt {
		return "", errInjected
	}
	return l.Ledger.Post(ctx, tx)
}

func newUploader(t *testing.T, l cs.Ledger, opts ...Option) *Uploader {
	t.Helper()
	s, err := signer.Generate()
	if err != nil {
		t.Fatal(err)
	}
	u := New(l, s, opts...)
	t.Cleanup(func() { u.Close() })
	return u
}

func testContext() cs.TagContext {
	return cs.TagContext{App: "clay", Kind: cs.KindProject, LogicalID: "proj", Name: "Head", Author: "0xAuthor"}
}

func TestUploadChunkSet(t *testing.T) {
	ctx := context.Background()
	l := mem.New()
	u := newUploader(t, l)

	payloads, err := codec.Encode(`{"v":"`+strings.Repeat("a", 1000)+`"}`, 100)
	if err != nil {
		t.Fatal(err)
	}

	var progress []cs.Progress
	res, err := u.UploadChunkSet(ctx, payloads, testContext(), func(p cs.Progress) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.TxIDs) != len(payloads) {
		t.Fatalf("got %d ids, want %d", len(res.TxIDs), len(payloads))
	}
	if diff := cmp.Diff(res.TxIDs, res.Manifest.Chunks); diff != "" {
		t.Errorf("manifest chunk list mismatch (-result +manifest):\n%s", diff)
	}
	if l.Len() != len(payloads)+1 {
		t.Errorf("ledger holds %d transactions, want %d", l.Len(), len(payloads)+1)
	}

	for i, id := range res.TxIDs {
		b, err := l.Fetch(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		body, err := codec.ParseChunkBody(b)
		if err != nil {
			t.Fatal(err)
		}
		if body.Metadata.ChunkIndex != i || body.Chunk != payloads[i].Data {
			t.Errorf("transaction %d holds chunk %d", i, body.Metadata.ChunkIndex)
		}
	}

	mb, err := l.Fetch(ctx, res.ManifestID)
	if err != nil {
		t.Fatal(err)
	}
	m, err := codec.ParseManifest(mb)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(res.TxIDs, m.Chunks); diff != "" {
		t.Errorf("stored manifest mismatch (-want +got):\n%s", diff)
	}

	if len(progress) != len(payloads) {
		t.Fatalf("got %d progress reports, want %d", len(progress), len(payloads))
	}
	last := progress[len(progress)-1]
	if last.Current != len(payloads) || last.Total != len(payloads) || last.Percent != 100 {
		t.Errorf("final progress %+v", last)
	}
}

func TestUploadFailure(t *testing.T) {
	ctx := context.Background()
	inner := mem.New()
	l := &flakyLedger{Ledger: inner, failAt: 3}
	u := newUploader(t, l)

	payloads, err := codec.Encode(strings.Repeat("x", 500), 50)
	if err != nil {
		t.Fatal(err)
	}

	var reports int
	_, err = u.UploadChunkSet(ctx, payloads, testContext(), func(cs.Progress) { reports++ })
	var uerr *cs.UploadError
	if !errors.As(err, &uerr) {
		t.Fatalf("got %v, want UploadError", err)
	}
	if uerr.Index != 2 {
		t.Errorf("failed at chunk %d, want 2", uerr.Index)
	}
	if !errors.Is(err, errInjected) {
		t.Error("underlying error not wrapped")
	}
	if reports != 2 {
		t.Errorf("got %d progress reports, want 2", reports)
	}
	if inner.Len() != 2 {
		t.Errorf("ledger holds %d transactions, want 2 orphaned chunks and no manifest", inner.Len())
	}
	edges, err := inner.Query(ctx, cs.Query{Tags: []cs.TagFilter{cs.Filter(cs.TagDataType, cs.ManifestDataType(cs.KindProject))}})
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 0 {
		t.Error("a manifest was posted")
	}
}

func TestSequentialAcrossCallers(t *testing.T) {
	ctx := context.Background()
	l := &flakyLedger{Ledger: mem.New()}
	u := newUploader(t, l)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payloads, err := codec.Encode(strings.Repeat("y", 300), 30)
			if err != nil {
				errs <- err
				return
			}
			_, err = u.UploadChunkSet(ctx, payloads, testContext(), nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if max := atomic.LoadInt32(&l.maxIn); max != 1 {
		t.Errorf("saw %d concurrent posts, want 1", max)
	}
}

func TestUploadWithConfirm(t *testing.T) {
	ctx := context.Background()
	l := mem.New(mem.VisibilityLag(1))
	u := newUploader(t, l, WithConfirm(confirm.New(l, confirm.Immediate(3))))

	payloads, err := codec.Encode("{}", 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := u.UploadChunkSet(ctx, payloads, testContext(), nil); err != nil {
		t.Fatal(err)
	}
}

func TestUploadConfirmTimeout(t *testing.T) {
	ctx := context.Background()
	l := mem.New(mem.VisibilityLag(10))
	u := newUploader(t, l, WithConfirm(confirm.New(l, confirm.Immediate(2))))

	payloads, err := codec.Encode("{}", 1)
	if err != nil {
		t.Fatal(err)
	}
	_, err = u.UploadChunkSet(ctx, payloads, testContext(), nil)
	var terr *cs.ConfirmationTimeoutError
	if !errors.As(err, &terr) {
		t.Errorf("got %v, want ConfirmationTimeoutError", err)
	}
}

func TestBadPayloads(t *testing.T) {
	u := newUploader(t, mem.New())
	payloads, err := codec.Encode(strings.Repeat("z", 100), 10)
	if err != nil {
		t.Fatal(err)
	}
	payloads[1], payloads[2] = payloads[2], payloads[1]

	_, err = u.UploadChunkSet(context.Background(), payloads, testContext(), nil)
	var rerr *cs.ReassemblyError
	if !errors.As(err, &rerr) {
		t.Errorf("got %v, want ReassemblyError", err)
	}
}

func TestClosed(t *testing.T) {
	s, err := signer.Generate()
	if err != nil {
		t.Fatal(err)
	}
	u := New(mem.New(), s)
	if u.Owner() != s.Owner() {
		t.Errorf("got owner %s, want %s", u.Owner(), s.Owner())
	}
	u.Close()
	if _, err := u.Post(context.Background(), &cs.Tx{}); !errors.Is(err, ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}
}
