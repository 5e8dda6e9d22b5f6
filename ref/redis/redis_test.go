package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/testutil"
)

func newStore(t *testing.T, cfg Config) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg.URL = "redis://" + mr.Addr()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRefs(t *testing.T) {
	s, _ := newStore(t, Config{})
	testutil.Refs(context.Background(), t, s)
}

func TestKeys(t *testing.T) {
	s, mr := newStore(t, Config{Prefix: "test:"})
	if err := s.Save(context.Background(), "doc", "", "tx1"); err != nil {
		t.Fatal(err)
	}
	if got := mr.HGet("test:ref:doc", "root"); got != "tx1" {
		t.Errorf("root field is %q, want tx1", got)
	}
	if !mr.Exists("test:refs") {
		t.Error("index key missing")
	}
}

func TestPublish(t *testing.T) {
	const channel = "refs_updated"
	s, mr := newStore(t, Config{Channel: channel})

	sub := mr.NewSubscriber()
	sub.Subscribe(channel)
	ch := make(chan miniredis.PubsubMessage, 1)
	go func() {
		ch <- <-sub.Messages()
	}()

	if err := s.Save(context.Background(), "doc", "", "tx1"); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-ch:
		var r cs.Reference
		if err := json.Unmarshal([]byte(msg.Message), &r); err != nil {
			t.Fatal(err)
		}
		if r.LogicalID != "doc" || r.LatestTxID != "tx1" {
			t.Errorf("published %+v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for update message")
	}
}

func TestMissingURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected an error for a missing URL")
	}
}
