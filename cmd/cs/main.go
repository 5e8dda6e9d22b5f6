// Command cs stores and retrieves chunked documents on a ledger.
package main

import (
	"context"
	"encoding/json"
	"flag"
	stdlog "log"
	"os"
	"time"

	"github.com/bobg/subcmd"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/config"
	"github.com/clayledger/cs/doc"
	_ "github.com/clayledger/cs/ledger/compress"
	_ "github.com/clayledger/cs/ledger/gateway"
	_ "github.com/clayledger/cs/ledger/gcs"
	"github.com/clayledger/cs/ledger/logging"
	_ "github.com/clayledger/cs/ledger/lru"
	_ "github.com/clayledger/cs/ledger/mem"
	_ "github.com/clayledger/cs/ledger/replica"
	_ "github.com/clayledger/cs/ledger/rpc"
	_ "github.com/clayledger/cs/ledger/s3"
	_ "github.com/clayledger/cs/ledger/transform"
	"github.com/clayledger/cs/log"
	"github.com/clayledger/cs/ref"
	_ "github.com/clayledger/cs/ref/badger"
	_ "github.com/clayledger/cs/ref/file"
	_ "github.com/clayledger/cs/ref/mem"
	_ "github.com/clayledger/cs/ref/redis"
	"github.com/clayledger/cs/signer"
	_ "github.com/clayledger/cs/store/pg"
	_ "github.com/clayledger/cs/store/sqlite3"
	"github.com/clayledger/cs/upload"
)

type maincmd struct {
	conf *config.Config
	l    cs.Ledger
	refs ref.Store
	log  *zap.Logger
}

func main() {
	var (
		configPath = flag.String("config", "csconf.json", "path to config file (JSON or YAML)")
		level      = flag.String("log", "", "log level (overrides config)")
	)
	flag.Parse()

	if *configPath == "" {
		stdlog.Fatal("Config value not set")
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatal(err)
	}
	if *level == "" {
		*level = conf.LogLevel()
	}
	logger, err := log.Stderr(*level)
	if err != nil {
		stdlog.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	l, err := conf.NewLedger(ctx)
	if err != nil {
		logger.Fatal("creating ledger", zap.Error(err))
	}
	refs, err := conf.NewRefs(ctx)
	if err != nil {
		logger.Fatal("creating reference store", zap.Error(err))
	}

	c := maincmd{
		conf: conf,
		l:    logging.New(l, logger),
		refs: refs,
		log:  logger,
	}
	err = subcmd.Run(ctx, c, flag.Args())
	if err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

func (c maincmd) Subcmds() map[string]subcmd.Subcmd {
	return map[string]subcmd.Subcmd{
		"get":      c.get,
		"history":  c.history,
		"keygen":   c.keygen,
		"latest":   c.latest,
		"manifest": c.manifest,
		"put":      c.put,
		"query":    c.query,
		"refs":     c.listRefs,
		"serve":    c.serve,
	}
}

// service builds a document service.
// The returned function stops its uploader.
func (c maincmd) service() (*doc.Service, func(), error) {
	if c.conf.Key == "" {
		return nil, nil, errors.New(`config has no "key"`)
	}
	s, err := signer.Load(c.conf.Key)
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading signing key")
	}
	u := upload.New(c.l, s, upload.WithLogger(c.log))
	svc := c.readService()
	svc.Uploader = u
	svc.Waiter = c.conf.NewWaiter(c.l, c.log)
	return svc, func() { u.Close() }, nil
}

// readService builds a document service that cannot save.
func (c maincmd) readService() *doc.Service {
	svc := doc.New(c.conf.App, c.l, nil, c.refs)
	svc.ChunkSize = c.conf.ChunkSize
	svc.Log = c.log
	return svc
}

func progressLogger(log *zap.Logger) cs.ProgressFunc {
	return func(p cs.Progress) {
		log.Debug("progress", zap.Int("current", p.Current), zap.Int("total", p.Total), zap.Float64("percent", p.Percent))
	}
}

var layouts = []string{
	time.RFC3339Nano, time.RFC3339, time.ANSIC, time.UnixDate,
}

func parsetime(s string) (time.Time, error) {
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("could not parse time")
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "writing output")
}
