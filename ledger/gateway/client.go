package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/internal/param"
	"github.com/clayledger/cs/ledger"
)

var _ cs.Ledger = &Client{}

// Client is a cs.Ledger talking to a gateway.
type Client struct {
	base string
	hc   *http.Client
}

// New produces a Client for the gateway at the given base URL.
// A nil hc means http.DefaultClient.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: strings.TrimSuffix(baseURL, "/"), hc: hc}
}

// StatusError is a non-success HTTP response from a gateway.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.Code, e.Body)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return cs.ErrNotFound
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return cs.ErrTooLarge
	case resp.StatusCode/100 != 2:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if b, ok := out.(*[]byte); ok {
		*b, err = io.ReadAll(resp.Body)
		return errors.Wrap(err, "reading response body")
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decoding response")
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "encoding request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// Post implements cs.Ledger.
func (c *Client) Post(ctx context.Context, tx *cs.Tx) (cs.TxID, error) {
	if err := ledger.CheckTx(tx); err != nil {
		return "", err
	}
	var resp postResponse
	err := c.postJSON(ctx, "/tx", txBody{
		Data:      tx.Data,
		Tags:      tx.Tags,
		Owner:     tx.Owner,
		Nonce:     tx.Nonce,
		Signature: tx.Signature,
	}, &resp)
	return resp.ID, err
}

// Fetch implements cs.Getter.
func (c *Client) Fetch(ctx context.Context, id cs.TxID) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/"+string(id), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	var data []byte
	err = c.do(req, &data)
	return data, err
}

// Query implements cs.Getter.
func (c *Client) Query(ctx context.Context, q cs.Query) ([]cs.Edge, error) {
	var resp graphqlResponse
	err := c.postJSON(ctx, "/graphql", graphqlRequest{Query: TransactionsQuery, Variables: toVariables(q)}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, errors.Errorf("graphql: %s", resp.Errors[0].Message)
	}
	if resp.Data == nil {
		return nil, errors.New("graphql: empty response")
	}

	edges := make([]cs.Edge, 0, len(resp.Data.Transactions.Edges))
	for _, e := range resp.Data.Transactions.Edges {
		edge, err := e.Node.edge()
		if err != nil {
			return nil, errors.Wrapf(err, "parsing timestamp of %s", e.Node.ID)
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

func init() {
	ledger.Register("gateway", func(_ context.Context, conf map[string]interface{}) (cs.Ledger, error) {
		url, err := param.RequireString(conf, "url")
		if err != nil {
			return nil, err
		}
		hc := http.DefaultClient
		if timeout, ok := param.Duration(conf, "timeout"); ok {
			hc = &http.Client{Timeout: timeout}
		}
		return New(url, hc), nil
	})
}
