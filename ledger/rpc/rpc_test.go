package rpc

import (
	context "context"
	"errors"
	"net"
	"testing"

	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/ledger/mem"
	refmem "github.com/clayledger/cs/ref/mem"
	"github.com/clayledger/cs/testutil"
)

func newClient(t *testing.T, srv *Server) *Client {
	t.Helper()

	grpcSrv := grpc.NewServer()
	RegisterLedgerServer(grpcSrv, srv)
	t.Cleanup(grpcSrv.GracefulStop)

	l := bufconn.Listen(1 << 20)
	go grpcSrv.Serve(l)

	options := []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
			return l.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}

	cc, err := grpc.NewClient("passthrough:///bufnet", options...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cc.Close() })

	return NewClient(cc)
}

func TestRPC(t *testing.T) {
	ctx := context.Background()
	c := newClient(t, NewServer(mem.New(), refmem.New()))

	t.Run("ledger", func(t *testing.T) {
		testutil.Ledger(ctx, t, c)
	})
	t.Run("readwrite", func(t *testing.T) {
		testutil.ReadWrite(ctx, t, c, testutil.Document(100000))
	})
	t.Run("refs", func(t *testing.T) {
		testutil.Refs(ctx, t, c)
	})
}

func TestNoRefs(t *testing.T) {
	c := newClient(t, NewServer(mem.New(), nil))
	_, err := c.Get(context.Background(), "x")
	if err == nil || errors.Is(err, cs.ErrNotFound) {
		t.Errorf("got %v, want an unimplemented error", err)
	}
}
