package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "nem12.v1.MeterReadService"

const (
	ListMeterReadsMethod = "/" + ServiceName + "/ListMeterReads"
	ListVolumesMethod    = "/" + ServiceName + "/ListVolumes"
	ParseMethod          = "/" + ServiceName + "/Parse"
)

// MeterReadServiceServer is the server API of nem12.v1.MeterReadService.
// Requests and responses are protobuf well-known types; wire.go maps them to Go types.
type MeterReadServiceServer interface {
	ListMeterReads(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListVolumes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Parse(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
}

func RegisterMeterReadServiceServer(s grpc.ServiceRegistrar, srv MeterReadServiceServer) {
	s.RegisterService(&MeterReadServiceDesc, srv)
}

var MeterReadServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MeterReadServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListMeterReads", Handler: listMeterReadsHandler},
		{MethodName: "ListVolumes", Handler: listVolumesHandler},
		{MethodName: "Parse", Handler: parseHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nem12/v1/meterread.proto",
}

func listMeterReadsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeterReadServiceServer).ListMeterReads(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListMeterReadsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MeterReadServiceServer).ListMeterReads(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listVolumesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeterReadServiceServer).ListVolumes(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListVolumesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MeterReadServiceServer).ListVolumes(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func parseHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeterReadServiceServer).Parse(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ParseMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MeterReadServiceServer).Parse(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls nem12.v1.MeterReadService and decodes responses into Go types.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ListMeterReads(ctx context.Context, in ListMeterReadsRequest, opts ...grpc.CallOption) (*ListMeterReadsResponse, error) {
	out := new(ListMeterReadsResponse)
	if err := c.invoke(ctx, ListMeterReadsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListVolumes(ctx context.Context, in ListVolumesRequest, opts ...grpc.CallOption) (*ListVolumesResponse, error) {
	out := new(ListVolumesResponse)
	if err := c.invoke(ctx, ListVolumesMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Parse(ctx context.Context, payload []byte, opts ...grpc.CallOption) (*ParseResponse, error) {
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ParseMethod, wrapperspb.Bytes(payload), resp, opts...); err != nil {
		return nil, err
	}
	out := new(ParseResponse)
	if err := fromStruct(resp, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	req, err := toStruct(in)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, resp, opts...); err != nil {
		return err
	}
	return fromStruct(resp, out)
}
