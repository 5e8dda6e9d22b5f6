package main

import (
	"context"
	"flag"
	"strings"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/ref"
)

func (c maincmd) query(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		q     cs.Query
		first = fs.Int("first", 0, "page size")
		after = fs.String("after", "", "cursor: start after this transaction")
		desc  = fs.Bool("desc", false, "newest first")
	)
	fs.Func("tag", "tag filter NAME=VALUE[,VALUE...] (repeatable)", func(s string) error {
		name, vals, ok := strings.Cut(s, "=")
		if !ok {
			return errors.Errorf("malformed tag filter %q", s)
		}
		q.Tags = append(q.Tags, cs.Filter(name, strings.Split(vals, ",")...))
		return nil
	})
	fs.Func("owner", "owner (repeatable)", func(s string) error {
		q.Owners = append(q.Owners, s)
		return nil
	})
	fs.Func("id", "transaction id (repeatable)", func(s string) error {
		q.IDs = append(q.IDs, cs.TxID(s))
		return nil
	})
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	q.First = *first
	q.After = cs.TxID(*after)
	if *desc {
		q.Order = cs.Desc
	}

	edges, err := c.l.Query(ctx, q)
	if err != nil {
		return errors.Wrap(err, "querying ledger")
	}
	return writeJSON(edges)
}

func (c maincmd) latest(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		kind    = fs.String("kind", cs.KindProject, "document kind")
		id      = fs.String("id", "", "logical id of the document")
		refresh = fs.Bool("refresh", false, "look for a newer version on the ledger")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}
	if *id == "" {
		return errors.New("missing -id")
	}

	r := &ref.Resolver{Refs: c.refs, G: c.l, App: c.conf.App, Log: c.log}
	var result cs.Reference
	if *refresh {
		result, err = r.Refresh(ctx, *kind, *id)
	} else {
		result, err = r.Latest(ctx, *kind, *id)
	}
	if err != nil {
		return errors.Wrapf(err, "resolving %s", *id)
	}
	return writeJSON(result)
}

func (c maincmd) history(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		kind = fs.String("kind", cs.KindProject, "document kind")
		id   = fs.String("id", "", "logical id of the document")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}
	if *id == "" {
		return errors.New("missing -id")
	}

	edges, err := c.readService().History(ctx, *kind, *id)
	if err != nil {
		return err
	}
	return writeJSON(edges)
}

func (c maincmd) listRefs(ctx context.Context, fs *flag.FlagSet, args []string) error {
	start := fs.String("start", "", "list references after this logical id")
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	lister, ok := c.refs.(ref.Lister)
	if !ok {
		return errors.New("reference store cannot list")
	}
	var refs []cs.Reference
	err = lister.List(ctx, *start, func(r cs.Reference) error {
		refs = append(refs, r)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "listing references")
	}
	return writeJSON(refs)
}
