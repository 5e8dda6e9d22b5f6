package main

import (
	"context"
	"flag"
	"os"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/codec"
	"github.com/clayledger/cs/locate"
)

func (c maincmd) get(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		kind       = fs.String("kind", cs.KindProject, "document kind")
		id         = fs.String("id", "", "logical id of the document")
		atstr      = fs.String("at", "", "get the version current at this time (default: latest)")
		manifestID = fs.String("manifest", "", "get the document with this manifest transaction")
		chunkSet   = fs.String("chunkset", "", "get the document with this chunk set id")
		total      = fs.Int("total", 0, "number of chunks in -chunkset")
		raw        = fs.Bool("raw", false, "accept any UTF-8 document, not only JSON")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	svc := c.readService()
	if *raw {
		svc.Decoder.Validator = codec.UTF8{}
	}
	loc := &locate.Locator{G: c.l, Log: c.log}
	progress := progressLogger(c.log)

	var body string
	switch {
	case *manifestID != "":
		body, err = loc.Download(ctx, cs.TxID(*manifestID), svc.Decoder, progress)

	case *chunkSet != "":
		if *total <= 0 {
			return errors.New("-chunkset requires -total")
		}
		body, err = loc.DownloadChunkSet(ctx, *chunkSet, *total, svc.Decoder, progress)

	case *id == "":
		return errors.New("must supply one of -id, -manifest, or -chunkset")

	case *atstr != "":
		at, perr := parsetime(*atstr)
		if perr != nil {
			return errors.Wrap(perr, "parsing -at")
		}
		body, _, err = svc.LoadAt(ctx, *kind, *id, at, progress)

	default:
		body, _, err = svc.Load(ctx, *kind, *id, progress)
	}
	if err != nil {
		return err
	}

	_, err = os.Stdout.WriteString(body)
	return errors.Wrap(err, "writing document to stdout")
}

func (c maincmd) manifest(ctx context.Context, fs *flag.FlagSet, args []string) error {
	tx := fs.String("tx", "", "manifest transaction id")
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}
	if *tx == "" {
		return errors.New("missing -tx")
	}

	m, err := locate.New(c.l).LoadManifest(ctx, cs.TxID(*tx))
	if err != nil {
		return err
	}
	return writeJSON(m)
}
