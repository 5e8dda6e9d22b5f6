package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/clayledger/cs/ledger/gateway"
	"github.com/clayledger/cs/ledger/rpc"
)

func (c maincmd) serve(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		addr     = fs.String("addr", ":4000", "gRPC listen address")
		httpAddr = fs.String("http", "", "gateway HTTP listen address (default: none)")
		verify   = fs.Bool("verify", false, "gateway rejects transactions with bad signatures")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	gs := grpc.NewServer()
	rpc.RegisterLedgerServer(gs, rpc.NewServer(c.l, c.refs))
	defer gs.GracefulStop()

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", *addr)
	}
	defer lis.Close()

	fmt.Printf("Listening on %s\n", lis.Addr())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return gs.Serve(lis)
	})

	if *httpAddr != "" {
		opts := []gateway.ServerOption{gateway.WithServerLogger(c.log)}
		if *verify {
			opts = append(opts, gateway.WithVerify())
		}
		hs := &http.Server{Addr: *httpAddr, Handler: gateway.NewServer(c.l, opts...)}
		g.Go(func() error {
			c.log.Info("gateway listening", zap.String("addr", *httpAddr))
			err := hs.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-ctx.Done()
			hs.Close()
			gs.Stop()
			return nil
		})
	}

	return g.Wait()
}
