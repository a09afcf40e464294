package booksummary

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "booksummary.OrderbookAggregator"

const (
	getSymbolsMethod   = "/" + ServiceName + "/GetSymbols"
	getSummaryMethod   = "/" + ServiceName + "/GetSummary"
	watchSummaryMethod = "/" + ServiceName + "/WatchSummary"
)

type OrderbookAggregatorServer interface {
	GetSymbols(context.Context, *Empty) (*Symbols, error)
	GetSummary(context.Context, *SummaryRequest) (*Summary, error)
	WatchSummary(*SummaryRequest, OrderbookAggregator_WatchSummaryServer) error
}

type OrderbookAggregator_WatchSummaryServer interface {
	Send(*Summary) error
	grpc.ServerStream
}

// UnimplementedOrderbookAggregatorServer answers every call with Unimplemented.
type UnimplementedOrderbookAggregatorServer struct{}

func (UnimplementedOrderbookAggregatorServer) GetSymbols(context.Context, *Empty) (*Symbols, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetSymbols not implemented")
}

func (UnimplementedOrderbookAggregatorServer) GetSummary(context.Context, *SummaryRequest) (*Summary, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetSummary not implemented")
}

func (UnimplementedOrderbookAggregatorServer) WatchSummary(*SummaryRequest, OrderbookAggregator_WatchSummaryServer) error {
	return status.Errorf(codes.Unimplemented, "method WatchSummary not implemented")
}

// The server must be created with grpc.ForceServerCodec(Codec{}).
func RegisterOrderbookAggregatorServer(s grpc.ServiceRegistrar, srv OrderbookAggregatorServer) {
	s.RegisterService(&OrderbookAggregator_ServiceDesc, srv)
}

var OrderbookAggregator_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderbookAggregatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetSymbols",
			Handler:    getSymbolsHandler,
		},
		{
			MethodName: "GetSummary",
			Handler:    getSummaryHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchSummary",
			Handler:       watchSummaryHandler,
			ServerStreams: true,
		},
	},
	Metadata: FileName,
}

func getSymbolsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderbookAggregatorServer).GetSymbols(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getSymbolsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderbookAggregatorServer).GetSymbols(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getSummaryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SummaryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderbookAggregatorServer).GetSummary(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getSummaryMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderbookAggregatorServer).GetSummary(ctx, req.(*SummaryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func watchSummaryHandler(srv any, stream grpc.ServerStream) error {
	in := new(SummaryRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(OrderbookAggregatorServer).WatchSummary(in, &watchSummaryServer{stream})
}

type watchSummaryServer struct {
	grpc.ServerStream
}

func (x *watchSummaryServer) Send(m *Summary) error {
	return x.ServerStream.SendMsg(m)
}

// OrderbookAggregatorClient forces Codec on every call, the connection needs
// no extra options.
type OrderbookAggregatorClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderbookAggregatorClient(cc grpc.ClientConnInterface) *OrderbookAggregatorClient {
	return &OrderbookAggregatorClient{cc: cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
}

func (c *OrderbookAggregatorClient) GetSymbols(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Symbols, error) {
	out := new(Symbols)
	if err := c.cc.Invoke(ctx, getSymbolsMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderbookAggregatorClient) GetSummary(ctx context.Context, in *SummaryRequest, opts ...grpc.CallOption) (*Summary, error) {
	out := new(Summary)
	if err := c.cc.Invoke(ctx, getSummaryMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderbookAggregatorClient) WatchSummary(ctx context.Context, in *SummaryRequest, opts ...grpc.CallOption) (*WatchSummaryClient, error) {
	stream, err := c.cc.NewStream(ctx, &OrderbookAggregator_ServiceDesc.Streams[0], watchSummaryMethod, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &WatchSummaryClient{stream}, nil
}

type WatchSummaryClient struct {
	grpc.ClientStream
}

func (x *WatchSummaryClient) Recv() (*Summary, error) {
	m := new(Summary)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
