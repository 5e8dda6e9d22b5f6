// Package config loads the configuration of the cs command
// and builds the ledger, reference store, and document service it describes.
//
// A config file is JSON,
// or YAML when its name ends in .yaml or .yml.
// ${VAR} and ${VAR:-default} are replaced from the environment before parsing.
// Backend sections name a registered type with "type";
// the remaining keys are that backend's parameters,
// and wrapping backends take the wrapped one in "nested".
//
//	{
//	  "app": "clay",
//	  "chunk_size": 51200,
//	  "key": "${HOME}/.cs/key",
//	  "ledger": {"type": "lru", "size": 500, "nested": {"type": "sqlite3", "conn": "cs.db"}},
//	  "refs": {"type": "badger", "dir": "refs"},
//	  "confirm": {"attempts": 10, "delay": "2s"},
//	  "log": {"level": "info"}
//	}
package config

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/codec"
	"github.com/clayledger/cs/confirm"
	"github.com/clayledger/cs/internal/param"
	"github.com/clayledger/cs/ledger"
	"github.com/clayledger/cs/ref"
)

// Defaults for values missing from a config file.
const (
	DefaultApp             = "cs"
	DefaultConfirmAttempts = 10
	DefaultConfirmDelay    = 2 * time.Second
)

// Config is a parsed config file.
type Config struct {
	App       string
	ChunkSize int
	Key       string // path of the signing key file

	Ledger  map[string]interface{}
	Refs    map[string]interface{} // nil means an in-memory store
	Confirm confirm.Fixed
	Log     map[string]interface{}
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config file %s", path)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse parses config data.
// Ext selects the syntax: ".yaml" or ".yml" for YAML, anything else for JSON.
func Parse(data []byte, ext string) (*Config, error) {
	expanded := []byte(ExpandEnv(string(data)))

	var conf map[string]interface{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(expanded, &conf); err != nil {
			return nil, errors.Wrap(err, "decoding YAML config")
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(expanded))
		dec.UseNumber()
		if err := dec.Decode(&conf); err != nil {
			return nil, errors.Wrap(err, "decoding JSON config")
		}
	}
	return fromMap(conf)
}

func fromMap(conf map[string]interface{}) (*Config, error) {
	c := &Config{
		App:       DefaultApp,
		ChunkSize: codec.DefaultChunkSize,
		Confirm: confirm.Fixed{
			MaxAttempts: DefaultConfirmAttempts,
			Interval:    DefaultConfirmDelay,
		},
	}

	if s, ok := param.String(conf, "app"); ok && s != "" {
		c.App = s
	}
	if n, ok := param.Int(conf, "chunk_size"); ok {
		if n <= 0 {
			return nil, errors.Errorf("invalid chunk_size %d", n)
		}
		c.ChunkSize = n
	}
	c.Key, _ = param.String(conf, "key")

	var ok bool
	c.Ledger, ok = param.Map(conf, "ledger")
	if !ok {
		return nil, errors.New(`missing "ledger" section`)
	}
	if _, err := param.RequireString(c.Ledger, "type"); err != nil {
		return nil, errors.Wrap(err, "in ledger section")
	}
	if c.Refs, ok = param.Map(conf, "refs"); ok {
		if _, err := param.RequireString(c.Refs, "type"); err != nil {
			return nil, errors.Wrap(err, "in refs section")
		}
	}
	if m, ok := param.Map(conf, "confirm"); ok {
		if n, ok := param.Int(m, "attempts"); ok {
			c.Confirm.MaxAttempts = n
		}
		if d, ok := param.Duration(m, "delay"); ok {
			c.Confirm.Interval = d
		}
	}
	c.Log, _ = param.Map(conf, "log")

	return c, nil
}

// LogLevel is the configured log level, or empty.
func (c *Config) LogLevel() string {
	s, _ := param.String(c.Log, "level")
	return s
}

// NewLedger creates the configured ledger.
func (c *Config) NewLedger(ctx context.Context) (cs.Ledger, error) {
	typ, _ := param.String(c.Ledger, "type")
	l, err := ledger.Create(ctx, typ, c.Ledger)
	return l, errors.Wrapf(err, "creating %s ledger", typ)
}

// NewRefs creates the configured reference store.
func (c *Config) NewRefs(ctx context.Context) (ref.Store, error) {
	conf := c.Refs
	if conf == nil {
		conf = map[string]interface{}{"type": "mem"}
	}
	typ, _ := param.String(conf, "type")
	s, err := ref.Create(ctx, typ, conf)
	return s, errors.Wrapf(err, "creating %s reference store", typ)
}

// NewWaiter creates a confirmation waiter polling g.
func (c *Config) NewWaiter(g cs.Getter, log *zap.Logger) *confirm.Waiter {
	w := confirm.New(g, c.Confirm)
	w.Log = log
	return w
}
