package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/doc"
)

func (c maincmd) put(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		kind   = fs.String("kind", cs.KindProject, "document kind (project, folder-structure, profile)")
		id     = fs.String("id", "", "logical id of the document")
		name   = fs.String("name", "", "document name")
		author = fs.String("author", "", "author address (default: signing identity)")
		folder = fs.String("folder", "", "folder tag")
		file   = fs.String("file", "", "read the document from this file instead of stdin")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}
	if *id == "" {
		return errors.New("missing -id")
	}

	var r io.Reader = os.Stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return errors.Wrapf(err, "opening %s", *file)
		}
		defer f.Close()
		r = f
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "reading document")
	}

	svc, stop, err := c.service()
	if err != nil {
		return err
	}
	defer stop()

	saved, err := svc.Save(ctx, doc.Document{
		Kind:      *kind,
		LogicalID: *id,
		Name:      *name,
		Author:    *author,
		Folder:    *folder,
		Body:      string(body),
	}, progressLogger(c.log))
	if err != nil {
		return errors.Wrapf(err, "saving %s", *id)
	}
	return writeJSON(saved.Ref)
}
