package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/signer"
)

// Server serves a ledger over the gateway protocol.
type Server struct {
	l      cs.Ledger
	log    *zap.Logger
	verify bool
	mux    *http.ServeMux
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithVerify makes the server reject transactions whose signatures do not verify.
func WithVerify() ServerOption {
	return func(s *Server) { s.verify = true }
}

// WithServerLogger sets the server's logger.
func WithServerLogger(log *zap.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// NewServer produces a Server for l.
func NewServer(l cs.Ledger, opts ...ServerOption) *Server {
	s := &Server{l: l, log: zap.NewNop(), mux: http.NewServeMux()}
	for _, opt := range opts {
		opt(s)
	}
	s.mux.HandleFunc("POST /graphql", s.handleGraphQL)
	s.mux.HandleFunc("POST /tx", s.handlePost)
	s.mux.HandleFunc("GET /{id}", s.handleFetch)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.mux.ServeHTTP(w, req)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("writing response", zap.Error(err))
	}
}

func (s *Server) handleGraphQL(w http.ResponseWriter, req *http.Request) {
	var gq graphqlRequest
	if err := json.NewDecoder(req.Body).Decode(&gq); err != nil {
		s.writeJSON(w, http.StatusBadRequest, graphqlResponse{Errors: []graphqlError{{Message: err.Error()}}})
		return
	}
	edges, err := s.l.Query(req.Context(), gq.Variables.query())
	if err != nil {
		s.log.Error("query", zap.Error(err))
		s.writeJSON(w, http.StatusOK, graphqlResponse{Errors: []graphqlError{{Message: err.Error()}}})
		return
	}

	data := &responseData{}
	data.Transactions.Edges = make([]edge, 0, len(edges))
	for _, e := range edges {
		data.Transactions.Edges = append(data.Transactions.Edges, edge{Cursor: string(e.ID), Node: toNode(e)})
	}
	s.writeJSON(w, http.StatusOK, graphqlResponse{Data: data})
}

func (s *Server) handlePost(w http.ResponseWriter, req *http.Request) {
	var body txBody
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, 2*cs.MaxTxSize))
	if err := dec.Decode(&body); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx := &cs.Tx{
		Data:      body.Data,
		Tags:      body.Tags,
		Owner:     body.Owner,
		Nonce:     body.Nonce,
		Signature: body.Signature,
	}
	if s.verify {
		if err := signer.Verify(tx); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	id, err := s.l.Post(req.Context(), tx)
	if errors.Is(err, cs.ErrTooLarge) {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		s.log.Error("post", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, postResponse{ID: id})
}

func (s *Server) handleFetch(w http.ResponseWriter, req *http.Request) {
	id := cs.TxID(req.PathValue("id"))
	data, err := s.l.Fetch(req.Context(), id)
	if errors.Is(err, cs.ErrNotFound) {
		http.NotFound(w, req)
		return
	}
	if err != nil {
		s.log.Error("fetch", zap.String("id", string(id)), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err = w.Write(data); err != nil {
		s.log.Warn("writing body", zap.Error(err))
	}
}
