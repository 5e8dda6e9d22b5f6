package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/ledger/compress"
	"github.com/clayledger/cs/ledger/mem"
	"github.com/clayledger/cs/signer"
	"github.com/clayledger/cs/testutil"
)

func newGateway(t *testing.T, opts ...ServerOption) (*Client, *mem.Ledger) {
	t.Helper()
	l := mem.New()
	srv := httptest.NewServer(NewServer(l, opts...))
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client()), l
}

func TestLedger(t *testing.T) {
	c, _ := newGateway(t)
	testutil.Ledger(context.Background(), t, c)
}

func TestReadWrite(t *testing.T) {
	c, _ := newGateway(t, WithVerify())
	testutil.ReadWrite(context.Background(), t, c, testutil.Document(100000))
}

func TestVerify(t *testing.T) {
	c, l := newGateway(t, WithVerify())
	ctx := context.Background()

	s, err := signer.Generate()
	require.NoError(t, err)

	tx := &cs.Tx{Data: []byte("hello")}
	require.NoError(t, s.Sign(tx))
	tx.Data = []byte("tampered")

	_, err = c.Post(ctx, tx)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, 0, l.Len())
}

func TestVerifyBeforeCompression(t *testing.T) {
	ctx := context.Background()

	s, err := signer.Generate()
	require.NoError(t, err)
	body := []byte(testutil.Document(5000))

	// Compressing behind the server keeps signatures valid.
	srv := httptest.NewServer(NewServer(compress.New(mem.New(), compress.Zstd{}), WithVerify()))
	t.Cleanup(srv.Close)
	c := New(srv.URL, srv.Client())

	tx := &cs.Tx{Data: body}
	require.NoError(t, s.Sign(tx))
	id, err := c.Post(ctx, tx)
	require.NoError(t, err)
	got, err := c.Fetch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	// Compressing in front of it does not.
	tx = &cs.Tx{Data: body}
	require.NoError(t, s.Sign(tx))
	_, err = compress.New(c, compress.Zstd{}).Post(ctx, tx)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
}

func TestNotFound(t *testing.T) {
	c, _ := newGateway(t)
	_, err := c.Fetch(context.Background(), "nonesuch")
	assert.ErrorIs(t, err, cs.ErrNotFound)
}

func TestWireFormat(t *testing.T) {
	l := mem.New()
	id, err := l.Post(context.Background(), &cs.Tx{
		Data:  []byte("x"),
		Owner: "someone",
		Tags:  cs.Tags{{Name: cs.TagAppName, Value: "wire"}},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(l))
	defer srv.Close()

	body := `{"query":"ignored","variables":{"tags":[{"name":"App-Name","values":["wire"]}],"sort":"HEIGHT_DESC"}}`
	resp, err := http.Post(srv.URL+"/graphql", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Data struct {
			Transactions struct {
				Edges []struct {
					Cursor string `json:"cursor"`
					Node   struct {
						ID    string `json:"id"`
						Owner struct {
							Address string `json:"address"`
						} `json:"owner"`
						Tags []struct {
							Name  string `json:"name"`
							Value string `json:"value"`
						} `json:"tags"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"transactions"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	edges := got.Data.Transactions.Edges
	require.Len(t, edges, 1)
	assert.Equal(t, string(id), edges[0].Cursor)
	assert.Equal(t, string(id), edges[0].Node.ID)
	assert.Equal(t, "someone", edges[0].Node.Owner.Address)
	require.Len(t, edges[0].Node.Tags, 1)
	assert.Equal(t, "App-Name", edges[0].Node.Tags[0].Name)
}

func TestTooLarge(t *testing.T) {
	c, _ := newGateway(t)
	_, err := c.Post(context.Background(), &cs.Tx{Data: make([]byte, cs.MaxTxSize+1)})
	assert.ErrorIs(t, err, cs.ErrTooLarge)
}
