package bucket

import (
	"context"
	"strings"
	"testing"
	"testing/quick"
	"time"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/testutil"
)

func TestLedger(t *testing.T) {
	testutil.Ledger(context.Background(), t, New(NewMem()))
}

func TestReadWrite(t *testing.T) {
	testutil.ReadWrite(context.Background(), t, New(NewMem()), testutil.Document(50000))
}

func TestLayout(t *testing.T) {
	var (
		ctx = context.Background()
		m   = NewMem()
		l   = New(m)
	)
	id, err := l.Post(ctx, &cs.Tx{Data: []byte("x"), Tags: cs.Tags{{Name: "A", Value: "b"}}})
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	err = m.List(ctx, "", func(name string) error {
		names = append(names, name)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 3 {
		t.Fatalf("got objects %v, want 3", names)
	}
	if !strings.HasPrefix(names[0], "ix/41.62/") || !strings.HasPrefix(names[1], "log/") || names[2] != "tx/"+string(id) {
		t.Errorf("unexpected object names %v", names)
	}

	if _, err = l.Post(ctx, &cs.Tx{Data: []byte("x"), Tags: cs.Tags{{Name: "A", Value: "b"}}}); err == nil {
		t.Error("expected an error reposting the same transaction")
	}
}

func TestStamp(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(NewMem())
	l.now = func() time.Time { return fixed }

	t1 := l.stamp()
	t2 := l.stamp()
	if !t2.After(t1) {
		t.Errorf("second stamp %s not after first %s", t2, t1)
	}
}

func TestRecencyKey(t *testing.T) {
	width := len(recencyKey(time.Unix(0, 0)))
	if width != 30 {
		t.Fatalf("got width %d, want 30", width)
	}

	check := func(s1, n1, s2, n2 int64) bool {
		var (
			t1 = randToTime(s1, n1)
			t2 = randToTime(s2, n2)
			k1 = recencyKey(t1)
			k2 = recencyKey(t2)
		)
		if len(k1) != width || len(k2) != width {
			return false
		}
		switch {
		case t1.Before(t2):
			return k1 > k2
		case t1.After(t2):
			return k1 < k2
		}
		return k1 == k2
	}
	if err := quick.Check(check, nil); err != nil {
		t.Error(err)
	}

	// Adjacent nanoseconds still order.
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !(recencyKey(base) > recencyKey(base.Add(time.Nanosecond))) {
		t.Error("a nanosecond later does not sort first")
	}
}

// randToTime maps arbitrary ints to times within some ten thousand years of the epoch.
func randToTime(secs, nsecs int64) time.Time {
	return time.Unix(secs%(1<<38), nsecs%int64(time.Second))
}
