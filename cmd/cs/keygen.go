package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pkg/errors"

	"github.com/clayledger/cs/signer"
)

func (c maincmd) keygen(_ context.Context, fs *flag.FlagSet, args []string) error {
	out := fs.String("out", "", "key file to write (default: the config's key)")
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}
	path := *out
	if path == "" {
		path = c.conf.Key
	}
	if path == "" {
		return errors.New("missing -out")
	}

	s, err := signer.Generate()
	if err != nil {
		return errors.Wrap(err, "generating key")
	}
	if err := s.Save(path); err != nil {
		return errors.Wrapf(err, "saving key to %s", path)
	}
	fmt.Println(s.Owner())
	return nil
}
