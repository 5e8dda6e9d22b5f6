package rpc

import (
	context "context"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

const serviceName = "cs.Ledger"

// LedgerServer is the server API for the Ledger service.
type LedgerServer interface {
	Post(context.Context, *PostRequest) (*PostResponse, error)
	Fetch(context.Context, *FetchRequest) (*FetchResponse, error)
	Query(context.Context, *QueryRequest) (*QueryResponse, error)
	GetRef(context.Context, *GetRefRequest) (*GetRefResponse, error)
	SaveRef(context.Context, *SaveRefRequest) (*SaveRefResponse, error)
	ListRefs(*ListRefsRequest, Ledger_ListRefsServer) error
}

// UnimplementedLedgerServer can be embedded to have forward compatible implementations.
type UnimplementedLedgerServer struct{}

func (UnimplementedLedgerServer) Post(context.Context, *PostRequest) (*PostResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Post not implemented")
}
func (UnimplementedLedgerServer) Fetch(context.Context, *FetchRequest) (*FetchResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Fetch not implemented")
}
func (UnimplementedLedgerServer) Query(context.Context, *QueryRequest) (*QueryResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Query not implemented")
}
func (UnimplementedLedgerServer) GetRef(context.Context, *GetRefRequest) (*GetRefResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetRef not implemented")
}
func (UnimplementedLedgerServer) SaveRef(context.Context, *SaveRefRequest) (*SaveRefResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SaveRef not implemented")
}
func (UnimplementedLedgerServer) ListRefs(*ListRefsRequest, Ledger_ListRefsServer) error {
	return status.Errorf(codes.Unimplemented, "method ListRefs not implemented")
}

// RegisterLedgerServer registers srv with s.
func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&ledgerServiceDesc, srv)
}

func unaryHandler[Req any](call func(LedgerServer, context.Context, *Req) (interface{}, error), method string) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + serviceName + "/" + method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LedgerServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func listRefsHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(ListRefsRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(LedgerServer).ListRefs(m, &ledgerListRefsServer{stream})
}

// Ledger_ListRefsServer is the server side of a ListRefs stream.
type Ledger_ListRefsServer interface {
	Send(*ListRefsResponse) error
	grpc.ServerStream
}

type ledgerListRefsServer struct {
	grpc.ServerStream
}

func (x *ledgerListRefsServer) Send(m *ListRefsResponse) error {
	return x.ServerStream.SendMsg(m)
}

var ledgerServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Post",
			Handler: unaryHandler(func(s LedgerServer, ctx context.Context, req *PostRequest) (interface{}, error) {
				return s.Post(ctx, req)
			}, "Post"),
		},
		{
			MethodName: "Fetch",
			Handler: unaryHandler(func(s LedgerServer, ctx context.Context, req *FetchRequest) (interface{}, error) {
				return s.Fetch(ctx, req)
			}, "Fetch"),
		},
		{
			MethodName: "Query",
			Handler: unaryHandler(func(s LedgerServer, ctx context.Context, req *QueryRequest) (interface{}, error) {
				return s.Query(ctx, req)
			}, "Query"),
		},
		{
			MethodName: "GetRef",
			Handler: unaryHandler(func(s LedgerServer, ctx context.Context, req *GetRefRequest) (interface{}, error) {
				return s.GetRef(ctx, req)
			}, "GetRef"),
		},
		{
			MethodName: "SaveRef",
			Handler: unaryHandler(func(s LedgerServer, ctx context.Context, req *SaveRefRequest) (interface{}, error) {
				return s.SaveRef(ctx, req)
			}, "SaveRef"),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ListRefs",
			Handler:       listRefsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "cs/ledger",
}

// LedgerClient is the client API for the Ledger service.
type LedgerClient interface {
	Post(ctx context.Context, in *PostRequest, opts ...grpc.CallOption) (*PostResponse, error)
	Fetch(ctx context.Context, in *FetchRequest, opts ...grpc.CallOption) (*FetchResponse, error)
	Query(ctx context.Context, in *QueryRequest, opts ...grpc.CallOption) (*QueryResponse, error)
	GetRef(ctx context.Context, in *GetRefRequest, opts ...grpc.CallOption) (*GetRefResponse, error)
	SaveRef(ctx context.Context, in *SaveRefRequest, opts ...grpc.CallOption) (*SaveRefResponse, error)
	ListRefs(ctx context.Context, in *ListRefsRequest, opts ...grpc.CallOption) (Ledger_ListRefsClient, error)
}

type ledgerClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerClient produces a LedgerClient on cc.
// Every call uses the JSON codec.
func NewLedgerClient(cc grpc.ClientConnInterface) LedgerClient {
	return &ledgerClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	err := cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) Post(ctx context.Context, in *PostRequest, opts ...grpc.CallOption) (*PostResponse, error) {
	return invoke[PostResponse](ctx, c.cc, "Post", in, opts)
}

func (c *ledgerClient) Fetch(ctx context.Context, in *FetchRequest, opts ...grpc.CallOption) (*FetchResponse, error) {
	return invoke[FetchResponse](ctx, c.cc, "Fetch", in, opts)
}

func (c *ledgerClient) Query(ctx context.Context, in *QueryRequest, opts ...grpc.CallOption) (*QueryResponse, error) {
	return invoke[QueryResponse](ctx, c.cc, "Query", in, opts)
}

func (c *ledgerClient) GetRef(ctx context.Context, in *GetRefRequest, opts ...grpc.CallOption) (*GetRefResponse, error) {
	return invoke[GetRefResponse](ctx, c.cc, "GetRef", in, opts)
}

func (c *ledgerClient) SaveRef(ctx context.Context, in *SaveRefRequest, opts ...grpc.CallOption) (*SaveRefResponse, error) {
	return invoke[SaveRefResponse](ctx, c.cc, "SaveRef", in, opts)
}

func (c *ledgerClient) ListRefs(ctx context.Context, in *ListRefsRequest, opts ...grpc.CallOption) (Ledger_ListRefsClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ledgerServiceDesc.Streams[0], "/"+serviceName+"/ListRefs", opts...)
	if err != nil {
		return nil, err
	}
	x := &ledgerListRefsClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// Ledger_ListRefsClient is the client side of a ListRefs stream.
type Ledger_ListRefsClient interface {
	Recv() (*ListRefsResponse, error)
	grpc.ClientStream
}

type ledgerListRefsClient struct {
	grpc.ClientStream
}

func (x *ledgerListRefsClient) Recv() (*ListRefsResponse, error) {
	m := new(ListRefsResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
