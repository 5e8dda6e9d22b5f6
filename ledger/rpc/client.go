package rpc

import (
	context "context"
	"io"

	"github.com/pkg/errors"
	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	status "google.golang.org/grpc/status"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/internal/param"
	"github.com/clayledger/cs/ledger"
	"github.com/clayledger/cs/ref"
)

var (
	_ cs.Ledger  = &Client{}
	_ ref.Store  = &Client{}
	_ ref.Lister = &Client{}
)

// Client is a ledger and reference store
// served by a remote Server.
type Client struct {
	lc LedgerClient
}

// NewClient produces a Client on cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{lc: NewLedgerClient(cc)}
}

func fromStatus(err error) error {
	switch status.Code(err) {
	case codes.OK:
		return nil
	case codes.NotFound:
		return cs.ErrNotFound
	case codes.ResourceExhausted:
		return errors.Wrap(cs.ErrTooLarge, status.Convert(err).Message())
	}
	return err
}

func (c *Client) Post(ctx context.Context, tx *cs.Tx) (cs.TxID, error) {
	resp, err := c.lc.Post(ctx, &PostRequest{
		Data:      tx.Data,
		Tags:      tx.Tags,
		Owner:     tx.Owner,
		Nonce:     tx.Nonce,
		Signature: tx.Signature,
	})
	if err != nil {
		return "", fromStatus(err)
	}
	return resp.ID, nil
}

func (c *Client) Fetch(ctx context.Context, id cs.TxID) ([]byte, error) {
	resp, err := c.lc.Fetch(ctx, &FetchRequest{ID: id})
	if err != nil {
		return nil, fromStatus(err)
	}
	return resp.Data, nil
}

func (c *Client) Query(ctx context.Context, q cs.Query) ([]cs.Edge, error) {
	resp, err := c.lc.Query(ctx, &QueryRequest{Query: q})
	if err != nil {
		return nil, fromStatus(err)
	}
	edges := make([]cs.Edge, 0, len(resp.Edges))
	for _, e := range resp.Edges {
		edges = append(edges, cs.Edge{ID: e.ID, Tags: e.Tags, Owner: e.Owner, At: e.At})
	}
	return edges, nil
}

func (c *Client) Get(ctx context.Context, logicalID string) (cs.Reference, error) {
	resp, err := c.lc.GetRef(ctx, &GetRefRequest{LogicalID: logicalID})
	if err != nil {
		return cs.Reference{}, fromStatus(err)
	}
	return resp.Ref, nil
}

func (c *Client) Save(ctx context.Context, logicalID string, root, latest cs.TxID) error {
	_, err := c.lc.SaveRef(ctx, &SaveRefRequest{LogicalID: logicalID, Root: root, Latest: latest})
	return fromStatus(err)
}

func (c *Client) List(ctx context.Context, start string, f func(cs.Reference) error) error {
	lc, err := c.lc.ListRefs(ctx, &ListRefsRequest{Start: start})
	if err != nil {
		return fromStatus(err)
	}
	for {
		resp, err := lc.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(fromStatus(err), "receiving response")
		}
		err = f(resp.Ref)
		if err != nil {
			return err
		}
	}
}

func dial(conf map[string]interface{}) (*Client, error) {
	addr, err := param.RequireString(conf, "addr")
	if err != nil {
		return nil, err
	}
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}
	return NewClient(cc), nil
}

func init() {
	ledger.Register("rpc", func(_ context.Context, conf map[string]interface{}) (cs.Ledger, error) {
		return dial(conf)
	})
	ref.Register("rpc", func(_ context.Context, conf map[string]interface{}) (ref.Store, error) {
		return dial(conf)
	})
}
