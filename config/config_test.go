package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/codec"
	_ "github.com/clayledger/cs/ledger/lru"
	_ "github.com/clayledger/cs/ledger/mem"
	_ "github.com/clayledger/cs/ref/mem"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("CS_TEST_SET", "value")
	t.Setenv("CS_TEST_EMPTY", "")

	cases := []struct {
		in, want string
	}{
		{"${CS_TEST_SET}", "value"},
		{"a/${CS_TEST_SET}/b", "a/value/b"},
		{"${CS_TEST_UNSET}", ""},
		{"${CS_TEST_UNSET:-dflt}", "dflt"},
		{"${CS_TEST_EMPTY:-dflt}", "dflt"},
		{"${CS_TEST_SET:-dflt}", "value"},
		{"$CS_TEST_SET", "$CS_TEST_SET"},
	}
	for _, c := range cases {
		if got := ExpandEnv(c.in); got != c.want {
			t.Errorf("ExpandEnv(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

const jsonConfig = `{
  "app": "clay",
  "chunk_size": 4096,
  "key": "${CS_TEST_HOME}/key",
  "ledger": {"type": "lru", "size": 10, "nested": {"type": "mem"}},
  "confirm": {"attempts": 3, "delay": "10ms"},
  "log": {"level": "debug"}
}`

const yamlConfig = `
app: clay
chunk_size: 4096
key: ${CS_TEST_HOME}/key
ledger:
  type: lru
  size: 10
  nested:
    type: mem
confirm:
  attempts: 3
  delay: 10ms
log:
  level: debug
`

func TestParse(t *testing.T) {
	t.Setenv("CS_TEST_HOME", "/home/x")

	for _, ext := range []string{".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			data := jsonConfig
			if ext == ".yaml" {
				data = yamlConfig
			}
			c, err := Parse([]byte(data), ext)
			if err != nil {
				t.Fatal(err)
			}
			if c.App != "clay" || c.ChunkSize != 4096 || c.Key != "/home/x/key" {
				t.Errorf("got app %q, chunk size %d, key %q", c.App, c.ChunkSize, c.Key)
			}
			if c.Confirm.MaxAttempts != 3 || c.Confirm.Interval != 10*time.Millisecond {
				t.Errorf("got confirm policy %+v", c.Confirm)
			}
			if c.LogLevel() != "debug" {
				t.Errorf("got log level %q", c.LogLevel())
			}

			ctx := context.Background()
			l, err := c.NewLedger(ctx)
			if err != nil {
				t.Fatal(err)
			}
			id, err := l.Post(ctx, &cs.Tx{Data: []byte("hello")})
			if err != nil {
				t.Fatal(err)
			}
			got, err := l.Fetch(ctx, id)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]byte("hello"), got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}

			refs, err := c.NewRefs(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if err := refs.Save(ctx, "doc", "", id); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	c, err := Parse([]byte(`{"ledger": {"type": "mem"}}`), ".json")
	if err != nil {
		t.Fatal(err)
	}
	if c.App != DefaultApp || c.ChunkSize != codec.DefaultChunkSize {
		t.Errorf("got app %q, chunk size %d", c.App, c.ChunkSize)
	}
	if c.Confirm.MaxAttempts != DefaultConfirmAttempts || c.Confirm.Interval != DefaultConfirmDelay {
		t.Errorf("got confirm policy %+v", c.Confirm)
	}
}

func TestBadConfigs(t *testing.T) {
	cases := map[string]string{
		"no ledger":      `{"app": "x"}`,
		"untyped ledger": `{"ledger": {"size": 3}}`,
		"untyped refs":   `{"ledger": {"type": "mem"}, "refs": {}}`,
		"bad chunk size": `{"ledger": {"type": "mem"}, "chunk_size": 0}`,
		"malformed":      `{"ledger": `,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data), ".json"); err == nil {
				t.Error("no error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cs.yml")
	if err := os.WriteFile(path, []byte("ledger:\n  type: mem\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.NewLedger(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("loaded a missing file")
	}
}
