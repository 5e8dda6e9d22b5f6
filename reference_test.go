package cs

import (
	"fmt"
	"testing"
	"time"
)

func TestFindVersion(t *testing.T) {
	t1, err := time.Parse(time.RFC3339, "1977-08-05T13:00:00-04:00")
	if err != nil {
		t.Fatal(err)
	}
	t2 := t1.Add(time.Hour)

	e1 := Edge{ID: "tx1", At: t1}
	e2 := Edge{ID: "tx2", At: t2}

	cases := []struct {
		edges   []Edge
		at      time.Time
		want    TxID
		wantErr bool
	}{
		{
			at:      t1,
			wantErr: true,
		},
		{
			edges: []Edge{e1},
			at:    t1,
			want:  "tx1",
		},
		{
			edges:   []Edge{e1},
			at:      t1.Add(-time.Minute),
			wantErr: true,
		},
		{
			edges: []Edge{e1},
			at:    t1.Add(time.Minute),
			want:  "tx1",
		},
		{
			edges: []Edge{e1, e2},
			at:    t1,
			want:  "tx1",
		},
		{
			edges:   []Edge{e1, e2},
			at:      t1.Add(-time.Minute),
			wantErr: true,
		},
		{
			edges: []Edge{e1, e2},
			at:    t2.Add(-time.Minute),
			want:  "tx1",
		},
		{
			edges: []Edge{e1, e2},
			at:    t2,
			want:  "tx2",
		},
		{
			edges: []Edge{e1, e2},
			at:    t2.Add(time.Minute),
			want:  "tx2",
		},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("case_%02d", i+1), func(t *testing.T) {
			got, err := FindVersion(tc.edges, tc.at)
			switch {
			case tc.wantErr && err == nil:
				t.Error("got no error, want one")
			case !tc.wantErr && err != nil:
				t.Errorf("got error %v, want no error", err)
			case tc.wantErr:
				// ok - want error, got one
			case got.ID != tc.want:
				t.Errorf("got %s, want %s", got.ID, tc.want)
			}
		})
	}
}

func TestReferenceUpdate(t *testing.T) {
	now := time.Now()

	var r Reference
	r = r.Update("proj", "", "m1", now)
	if r.RootTxID != "m1" || r.LatestTxID != "m1" {
		t.Fatalf("after first update got root %s latest %s, want m1 m1", r.RootTxID, r.LatestTxID)
	}
	for _, latest := range []TxID{"m2", "m3", "m4"} {
		r = r.Update("proj", "ignored", latest, now)
		if r.RootTxID != "m1" {
			t.Errorf("root changed to %s", r.RootTxID)
		}
		if r.LatestTxID != latest {
			t.Errorf("got latest %s, want %s", r.LatestTxID, latest)
		}
	}
}
