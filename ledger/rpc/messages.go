package rpc

import (
	"time"

	"github.com/clayledger/cs"
)

type PostRequest struct {
	Data      []byte  `json:"data"`
	Tags      cs.Tags `json:"tags"`
	Owner     string  `json:"owner"`
	Nonce     uint64  `json:"nonce"`
	Signature []byte  `json:"signature,omitempty"`
}

type PostResponse struct {
	ID cs.TxID `json:"id"`
}

type FetchRequest struct {
	ID cs.TxID `json:"id"`
}

type FetchResponse struct {
	Data []byte `json:"data"`
}

type QueryRequest struct {
	Query cs.Query `json:"query"`
}

type Edge struct {
	ID    cs.TxID   `json:"id"`
	Tags  cs.Tags   `json:"tags"`
	Owner string    `json:"owner"`
	At    time.Time `json:"at"`
}

type QueryResponse struct {
	Edges []Edge `json:"edges"`
}

type GetRefRequest struct {
	LogicalID string `json:"logicalId"`
}

type GetRefResponse struct {
	Ref cs.Reference `json:"ref"`
}

type SaveRefRequest struct {
	LogicalID string  `json:"logicalId"`
	Root      cs.TxID `json:"root"`
	Latest    cs.TxID `json:"latest"`
}

type SaveRefResponse struct{}

type ListRefsRequest struct {
	Start string `json:"start"`
}

type ListRefsResponse struct {
	Ref cs.Reference `json:"ref"`
}
