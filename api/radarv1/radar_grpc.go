package radarv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName                                    = "radar.RadarService"
	RadarService_StreamRadarTargets_FullMethodName = "/radar.RadarService/StreamRadarTargets"
)

// RadarServiceClient is the client API for RadarService.
type RadarServiceClient interface {
	StreamRadarTargets(ctx context.Context, in *StreamRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[RadarTarget], error)
}

type radarServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRadarServiceClient wraps a connection.
func NewRadarServiceClient(cc grpc.ClientConnInterface) RadarServiceClient {
	return &radarServiceClient{cc}
}

func (c *radarServiceClient) StreamRadarTargets(ctx context.Context, in *StreamRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[RadarTarget], error) {
	stream, err := c.cc.NewStream(ctx, &RadarService_ServiceDesc.Streams[0], RadarService_StreamRadarTargets_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[StreamRequest, RadarTarget]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// RadarServiceServer is the server API for RadarService.
type RadarServiceServer interface {
	StreamRadarTargets(*StreamRequest, grpc.ServerStreamingServer[RadarTarget]) error
}

// UnimplementedRadarServiceServer can be embedded for forward compatibility.
type UnimplementedRadarServiceServer struct{}

func (UnimplementedRadarServiceServer) StreamRadarTargets(*StreamRequest, grpc.ServerStreamingServer[RadarTarget]) error {
	return status.Error(codes.Unimplemented, "method StreamRadarTargets not implemented")
}

// RegisterRadarServiceServer registers srv on s.
func RegisterRadarServiceServer(s grpc.ServiceRegistrar, srv RadarServiceServer) {
	s.RegisterService(&RadarService_ServiceDesc, srv)
}

func _RadarService_StreamRadarTargets_Handler(srv any, stream grpc.ServerStream) error {
	m := new(StreamRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(RadarServiceServer).StreamRadarTargets(m, &grpc.GenericServerStream[StreamRequest, RadarTarget]{ServerStream: stream})
}

// RadarService_ServiceDesc is the grpc.ServiceDesc for RadarService.
var RadarService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RadarServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamRadarTargets",
			Handler:       _RadarService_StreamRadarTargets_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "radar.proto",
}
