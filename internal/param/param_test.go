package param

import (
	"encoding/json"
	"testing"
	"time"
)

func TestInt(t *testing.T) {
	conf := map[string]interface{}{
		"a": 3,
		"b": int64(4),
		"c": float64(5),
		"d": json.Number("6"),
		"e": "7",
	}
	for key, want := range map[string]int{"a": 3, "b": 4, "c": 5, "d": 6} {
		got, ok := Int(conf, key)
		if !ok || got != want {
			t.Errorf("Int(%s) = %d, %v; want %d, true", key, got, ok, want)
		}
	}
	if _, ok := Int(conf, "e"); ok {
		t.Error("string parsed as int")
	}
}

func TestDuration(t *testing.T) {
	conf := map[string]interface{}{"s": "1.5s", "n": 250, "bad": "x"}
	if d, ok := Duration(conf, "s"); !ok || d != 1500*time.Millisecond {
		t.Errorf("got %s, %v", d, ok)
	}
	if d, ok := Duration(conf, "n"); !ok || d != 250*time.Millisecond {
		t.Errorf("got %s, %v", d, ok)
	}
	if _, ok := Duration(conf, "bad"); ok {
		t.Error("parsed a bad duration")
	}
}
