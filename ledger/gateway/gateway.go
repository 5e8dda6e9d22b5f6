// Package gateway implements a ledger client and server
// speaking a small HTTP protocol modeled on public ledger gateways:
//
//	POST /graphql  tag-filtered transaction search
//	GET  /{id}     a transaction body
//	POST /tx       posting a transaction
//
// Search requests carry a GraphQL document and its variables.
// The server reads only the variables,
// so it understands exactly the one query this package's client sends.
package gateway

import (
	"time"

	"github.com/clayledger/cs"
)

// TransactionsQuery is the GraphQL document the client sends to /graphql.
const TransactionsQuery = `query($ids: [ID!], $tags: [TagFilter!], $owners: [String!], $first: Int, $after: String, $sort: SortOrder) {
  transactions(ids: $ids, tags: $tags, owners: $owners, first: $first, after: $after, sort: $sort) {
    edges {
      cursor
      node {
        id
        owner { address }
        tags { name value }
        timestamp
      }
    }
  }
}`

type graphqlRequest struct {
	Query     string    `json:"query"`
	Variables variables `json:"variables"`
}

type variables struct {
	IDs    []cs.TxID      `json:"ids,omitempty"`
	Tags   []cs.TagFilter `json:"tags,omitempty"`
	Owners []string       `json:"owners,omitempty"`
	First  int            `json:"first,omitempty"`
	After  string         `json:"after,omitempty"`
	Sort   string         `json:"sort,omitempty"`
}

func toVariables(q cs.Query) variables {
	return variables{
		IDs:    q.IDs,
		Tags:   q.Tags,
		Owners: q.Owners,
		First:  q.First,
		After:  string(q.After),
		Sort:   q.Order.String(),
	}
}

func (v variables) query() cs.Query {
	q := cs.Query{
		IDs:    v.IDs,
		Tags:   v.Tags,
		Owners: v.Owners,
		First:  v.First,
		After:  cs.TxID(v.After),
	}
	if v.Sort == cs.Desc.String() {
		q.Order = cs.Desc
	}
	return q
}

type graphqlResponse struct {
	Data   *responseData  `json:"data,omitempty"`
	Errors []graphqlError `json:"errors,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type responseData struct {
	Transactions struct {
		Edges []edge `json:"edges"`
	} `json:"transactions"`
}

type edge struct {
	Cursor string `json:"cursor"`
	Node   node   `json:"node"`
}

type node struct {
	ID    cs.TxID `json:"id"`
	Owner struct {
		Address string `json:"address"`
	} `json:"owner"`
	Tags      cs.Tags `json:"tags"`
	Timestamp string  `json:"timestamp"`
}

func toNode(e cs.Edge) node {
	n := node{ID: e.ID, Tags: e.Tags, Timestamp: e.At.UTC().Format(cs.TimeFormat)}
	n.Owner.Address = e.Owner
	return n
}

func (n node) edge() (cs.Edge, error) {
	e := cs.Edge{ID: n.ID, Tags: n.Tags, Owner: n.Owner.Address}
	if n.Timestamp != "" {
		at, err := time.Parse(cs.TimeFormat, n.Timestamp)
		if err != nil {
			return cs.Edge{}, err
		}
		e.At = at
	}
	return e, nil
}

// txBody is the JSON body of a POST /tx request.
type txBody struct {
	Data      []byte  `json:"data"`
	Tags      cs.Tags `json:"tags"`
	Owner     string  `json:"owner"`
	Nonce     uint64  `json:"nonce"`
	Signature []byte  `json:"signature,omitempty"`
}

type postResponse struct {
	ID cs.TxID `json:"id"`
}
