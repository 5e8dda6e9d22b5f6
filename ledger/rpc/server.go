package rpc

import (
	context "context"
	"errors"

	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/ref"
)

var _ LedgerServer = &Server{}

// Server serves a ledger,
// and optionally a reference store,
// over gRPC.
type Server struct {
	UnimplementedLedgerServer

	l    cs.Ledger
	refs ref.Store // may be nil
}

// NewServer produces a Server for l and refs.
// A nil refs makes the reference methods fail with codes.Unimplemented.
func NewServer(l cs.Ledger, refs ref.Store) *Server {
	return &Server{l: l, refs: refs}
}

func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cs.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, cs.ErrTooLarge):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Unknown, err.Error())
}

func (s *Server) Post(ctx context.Context, req *PostRequest) (*PostResponse, error) {
	id, err := s.l.Post(ctx, &cs.Tx{
		Data:      req.Data,
		Tags:      req.Tags,
		Owner:     req.Owner,
		Nonce:     req.Nonce,
		Signature: req.Signature,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &PostResponse{ID: id}, nil
}

func (s *Server) Fetch(ctx context.Context, req *FetchRequest) (*FetchResponse, error) {
	data, err := s.l.Fetch(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &FetchResponse{Data: data}, nil
}

func (s *Server) Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error) {
	edges, err := s.l.Query(ctx, req.Query)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &QueryResponse{Edges: make([]Edge, 0, len(edges))}
	for _, e := range edges {
		resp.Edges = append(resp.Edges, Edge{ID: e.ID, Tags: e.Tags, Owner: e.Owner, At: e.At})
	}
	return resp, nil
}

func (s *Server) GetRef(ctx context.Context, req *GetRefRequest) (*GetRefResponse, error) {
	if s.refs == nil {
		return s.UnimplementedLedgerServer.GetRef(ctx, req)
	}
	r, err := s.refs.Get(ctx, req.LogicalID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetRefResponse{Ref: r}, nil
}

func (s *Server) SaveRef(ctx context.Context, req *SaveRefRequest) (*SaveRefResponse, error) {
	if s.refs == nil {
		return s.UnimplementedLedgerServer.SaveRef(ctx, req)
	}
	if err := s.refs.Save(ctx, req.LogicalID, req.Root, req.Latest); err != nil {
		return nil, toStatus(err)
	}
	return &SaveRefResponse{}, nil
}

func (s *Server) ListRefs(req *ListRefsRequest, srv Ledger_ListRefsServer) error {
	lister, ok := s.refs.(ref.Lister)
	if !ok {
		return s.UnimplementedLedgerServer.ListRefs(req, srv)
	}
	return toStatus(lister.List(srv.Context(), req.Start, func(r cs.Reference) error {
		return srv.Send(&ListRefsResponse{Ref: r})
	}))
}
