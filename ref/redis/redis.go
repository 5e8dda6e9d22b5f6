// Package redis implements a reference store on Redis.
//
// Each reference is a hash under "<prefix>ref:<logical id>"
// with fields root, latest, and updated.
// A sorted set "<prefix>refs" indexes the logical ids for listing.
// When a channel is configured,
// every Save also publishes the updated reference as JSON,
// so other clients can notice new versions.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/internal/param"
	"github.com/clayledger/cs/ref"
)

var (
	_ ref.Store  = &Store{}
	_ ref.Lister = &Store{}
)

// DefaultPrefix is the default key prefix.
const DefaultPrefix = "cs:"

// Config configures a Store.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string

	// Prefix is prepended to every key (default DefaultPrefix).
	Prefix string

	// Channel, if set, receives a JSON cs.Reference after every Save.
	Channel string
}

// Store is a Redis-based reference store.
type Store struct {
	config Config
	client *goredis.Client
}

// New creates a Store from the given config.
func New(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis reference store requires a URL")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	return &Store{config: cfg, client: goredis.NewClient(opts)}, nil
}

// Close releases the client's resources.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(logicalID string) string {
	return s.config.Prefix + "ref:" + logicalID
}

func (s *Store) index() string {
	return s.config.Prefix + "refs"
}

// Get implements ref.Getter.
func (s *Store) Get(ctx context.Context, logicalID string) (cs.Reference, error) {
	m, err := s.client.HGetAll(ctx, s.key(logicalID)).Result()
	if err != nil {
		return cs.Reference{}, errors.Wrapf(err, "getting reference %s", logicalID)
	}
	if len(m) == 0 {
		return cs.Reference{}, cs.ErrNotFound
	}
	return fromHash(logicalID, m)
}

func fromHash(logicalID string, m map[string]string) (cs.Reference, error) {
	r := cs.Reference{
		LogicalID:  logicalID,
		RootTxID:   cs.TxID(m["root"]),
		LatestTxID: cs.TxID(m["latest"]),
	}
	if v := m["updated"]; v != "" {
		at, err := time.Parse(cs.TimeFormat, v)
		if err != nil {
			return cs.Reference{}, errors.Wrapf(err, "parsing update time of %s", logicalID)
		}
		r.UpdatedAt = at
	}
	return r, nil
}

// Save implements ref.Store.
// The root field is only ever set if absent.
func (s *Store) Save(ctx context.Context, logicalID string, root, latest cs.TxID) error {
	if root == "" {
		root = latest
	}
	var (
		key = s.key(logicalID)
		now = ref.Now().UTC().Format(cs.TimeFormat)
	)
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSetNX(ctx, key, "root", string(root))
		p.HSet(ctx, key, "latest", string(latest), "updated", now)
		p.ZAdd(ctx, s.index(), goredis.Z{Member: logicalID})
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "saving reference %s", logicalID)
	}

	if s.config.Channel == "" {
		return nil
	}
	r, err := s.Get(ctx, logicalID)
	if err != nil {
		return err
	}
	body, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encoding reference")
	}
	return errors.Wrap(s.client.Publish(ctx, s.config.Channel, body).Err(), "publishing reference update")
}

// List implements ref.Lister.
func (s *Store) List(ctx context.Context, start string, f func(cs.Reference) error) error {
	lo := "-"
	if start != "" {
		lo = "(" + start
	}
	ids, err := s.client.ZRangeByLex(ctx, s.index(), &goredis.ZRangeBy{Min: lo, Max: "+"}).Result()
	if err != nil {
		return errors.Wrap(err, "listing references")
	}
	for _, id := range ids {
		r, err := s.Get(ctx, id)
		if errors.Is(err, cs.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err = f(r); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	ref.Register("redis", func(_ context.Context, conf map[string]interface{}) (ref.Store, error) {
		url, err := param.RequireString(conf, "url")
		if err != nil {
			return nil, err
		}
		cfg := Config{URL: url}
		cfg.Prefix, _ = param.String(conf, "prefix")
		cfg.Channel, _ = param.String(conf, "channel")
		return New(cfg)
	})
}
