package cs

import (
	"context"
	"errors"
)

// Getter is a read-only Ledger (qv).
type Getter interface {
	// Query returns the transactions matching q,
	// ordered by recency according to q.Order.
	//
	// A transaction just posted need not be visible to Query right away.
	// Ledgers are eventually consistent;
	// see the confirm package.
	Query(context.Context, Query) ([]Edge, error)

	// Fetch returns the stored body of the transaction with the given id.
	// It returns ErrNotFound if there is no such transaction.
	Fetch(context.Context, TxID) ([]byte, error)
}

// Ledger is a write-once, tag-queryable transaction store.
type Ledger interface {
	Getter

	// Post adds a transaction to the ledger and returns its id.
	// Posting a transaction whose body exceeds MaxTxSize fails.
	Post(context.Context, *Tx) (TxID, error)
}

// MaxTxSize is the largest transaction body a ledger accepts.
const MaxTxSize = 100 * 1024

// DefaultPageSize is the number of results a Query returns
// when Query.First is zero.
const DefaultPageSize = 100

// Order is the order of query results by recency.
type Order int

const (
	// Asc orders results oldest first.
	Asc Order = iota

	// Desc orders results newest first.
	Desc
)

func (o Order) String() string {
	if o == Desc {
		return "HEIGHT_DESC"
	}
	return "HEIGHT_ASC"
}

// TagFilter matches a transaction having a tag named Name
// whose value is any of Values.
type TagFilter struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Query describes a tag-filtered search.
// Every non-empty criterion must match.
type Query struct {
	IDs    []TxID      `json:"ids,omitempty"`
	Tags   []TagFilter `json:"tags,omitempty"`
	Owners []string    `json:"owners,omitempty"`

	// First is the page size.
	// Zero means DefaultPageSize.
	First int `json:"first,omitempty"`

	// After is a cursor:
	// when non-empty, results begin after the transaction with this id.
	After TxID `json:"after,omitempty"`

	Order Order `json:"order"`
}

// PageSize is q.First or DefaultPageSize.
func (q Query) PageSize() int {
	if q.First > 0 {
		return q.First
	}
	return DefaultPageSize
}

// Filter is a convenience for building a TagFilter.
func Filter(name string, values ...string) TagFilter {
	return TagFilter{Name: name, Values: values}
}

// ErrNotFound is the error returned
// when a Getter tries to fetch a non-existent transaction,
// or when a store holds no reference for a logical id.
var ErrNotFound = errors.New("not found")

// ErrTooLarge is the error returned when posting a transaction
// whose body exceeds MaxTxSize.
var ErrTooLarge = errors.New("transaction too large")
