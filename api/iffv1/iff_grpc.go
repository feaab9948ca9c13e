package iffv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName                             = "iff.IFFService"
	IFFService_StreamIFFData_FullMethodName = "/iff.IFFService/StreamIFFData"
)

// IFFServiceClient is the client API for IFFService.
type IFFServiceClient interface {
	StreamIFFData(ctx context.Context, in *IFFRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[IFFStreamResponse], error)
}

type iffServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewIFFServiceClient wraps a connection.
func NewIFFServiceClient(cc grpc.ClientConnInterface) IFFServiceClient {
	return &iffServiceClient{cc}
}

func (c *iffServiceClient) StreamIFFData(ctx context.Context, in *IFFRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[IFFStreamResponse], error) {
	stream, err := c.cc.NewStream(ctx, &IFFService_ServiceDesc.Streams[0], IFFService_StreamIFFData_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[IFFRequest, IFFStreamResponse]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// IFFServiceServer is the server API for IFFService.
type IFFServiceServer interface {
	StreamIFFData(*IFFRequest, grpc.ServerStreamingServer[IFFStreamResponse]) error
}

// UnimplementedIFFServiceServer can be embedded for forward compatibility.
type UnimplementedIFFServiceServer struct{}

func (UnimplementedIFFServiceServer) StreamIFFData(*IFFRequest, grpc.ServerStreamingServer[IFFStreamResponse]) error {
	return status.Error(codes.Unimplemented, "method StreamIFFData not implemented")
}

// RegisterIFFServiceServer registers srv on s.
func RegisterIFFServiceServer(s grpc.ServiceRegistrar, srv IFFServiceServer) {
	s.RegisterService(&IFFService_ServiceDesc, srv)
}

func _IFFService_StreamIFFData_Handler(srv any, stream grpc.ServerStream) error {
	m := new(IFFRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(IFFServiceServer).StreamIFFData(m, &grpc.GenericServerStream[IFFRequest, IFFStreamResponse]{ServerStream: stream})
}

// IFFService_ServiceDesc is the grpc.ServiceDesc for IFFService.
var IFFService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IFFServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamIFFData",
			Handler:       _IFFService_StreamIFFData_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "iff.proto",
}
