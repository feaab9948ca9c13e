package datalinkv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "datalink.DatalinkService"

	DatalinkService_GetTrack_FullMethodName                  = "/datalink.DatalinkService/GetTrack"
	DatalinkService_ListTracks_FullMethodName                = "/datalink.DatalinkService/ListTracks"
	DatalinkService_SetManualIdentification_FullMethodName   = "/datalink.DatalinkService/SetManualIdentification"
	DatalinkService_ClearManualIdentification_FullMethodName = "/datalink.DatalinkService/ClearManualIdentification"
)

// DatalinkServiceClient is the client API for DatalinkService.
type DatalinkServiceClient interface {
	GetTrack(ctx context.Context, in *GetTrackRequest, opts ...grpc.CallOption) (*GetTrackResponse, error)
	ListTracks(ctx context.Context, in *ListTracksRequest, opts ...grpc.CallOption) (*ListTracksResponse, error)
	SetManualIdentification(ctx context.Context, in *SetManualIdentificationRequest, opts ...grpc.CallOption) (*SetManualIdentificationResponse, error)
	ClearManualIdentification(ctx context.Context, in *ClearManualIdentificationRequest, opts ...grpc.CallOption) (*ClearManualIdentificationResponse, error)
}

type datalinkServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDatalinkServiceClient wraps a connection.
func NewDatalinkServiceClient(cc grpc.ClientConnInterface) DatalinkServiceClient {
	return &datalinkServiceClient{cc}
}

func (c *datalinkServiceClient) GetTrack(ctx context.Context, in *GetTrackRequest, opts ...grpc.CallOption) (*GetTrackResponse, error) {
	out := new(GetTrackResponse)
	if err := c.cc.Invoke(ctx, DatalinkService_GetTrack_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *datalinkServiceClient) ListTracks(ctx context.Context, in *ListTracksRequest, opts ...grpc.CallOption) (*ListTracksResponse, error) {
	out := new(ListTracksResponse)
	if err := c.cc.Invoke(ctx, DatalinkService_ListTracks_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *datalinkServiceClient) SetManualIdentification(ctx context.Context, in *SetManualIdentificationRequest, opts ...grpc.CallOption) (*SetManualIdentificationResponse, error) {
	out := new(SetManualIdentificationResponse)
	if err := c.cc.Invoke(ctx, DatalinkService_SetManualIdentification_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *datalinkServiceClient) ClearManualIdentification(ctx context.Context, in *ClearManualIdentificationRequest, opts ...grpc.CallOption) (*ClearManualIdentificationResponse, error) {
	out := new(ClearManualIdentificationResponse)
	if err := c.cc.Invoke(ctx, DatalinkService_ClearManualIdentification_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DatalinkServiceServer is the server API for DatalinkService.
type DatalinkServiceServer interface {
	GetTrack(context.Context, *GetTrackRequest) (*GetTrackResponse, error)
	ListTracks(context.Context, *ListTracksRequest) (*ListTracksResponse, error)
	SetManualIdentification(context.Context, *SetManualIdentificationRequest) (*SetManualIdentificationResponse, error)
	ClearManualIdentification(context.Context, *ClearManualIdentificationRequest) (*ClearManualIdentificationResponse, error)
}

// UnimplementedDatalinkServiceServer can be embedded for forward
// compatibility.
type UnimplementedDatalinkServiceServer struct{}

func (UnimplementedDatalinkServiceServer) GetTrack(context.Context, *GetTrackRequest) (*GetTrackResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetTrack not implemented")
}

func (UnimplementedDatalinkServiceServer) ListTracks(context.Context, *ListTracksRequest) (*ListTracksResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListTracks not implemented")
}

func (UnimplementedDatalinkServiceServer) SetManualIdentification(context.Context, *SetManualIdentificationRequest) (*SetManualIdentificationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetManualIdentification not implemented")
}

func (UnimplementedDatalinkServiceServer) ClearManualIdentification(context.Context, *ClearManualIdentificationRequest) (*ClearManualIdentificationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ClearManualIdentification not implemented")
}

// RegisterDatalinkServiceServer registers srv on s.
func RegisterDatalinkServiceServer(s grpc.ServiceRegistrar, srv DatalinkServiceServer) {
	s.RegisterService(&DatalinkService_ServiceDesc, srv)
}

func _DatalinkService_GetTrack_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetTrackRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DatalinkServiceServer).GetTrack(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DatalinkService_GetTrack_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DatalinkServiceServer).GetTrack(ctx, req.(*GetTrackRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _DatalinkService_ListTracks_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListTracksRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DatalinkServiceServer).ListTracks(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DatalinkService_ListTracks_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DatalinkServiceServer).ListTracks(ctx, req.(*ListTracksRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _DatalinkService_SetManualIdentification_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SetManualIdentificationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DatalinkServiceServer).SetManualIdentification(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DatalinkService_SetManualIdentification_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DatalinkServiceServer).SetManualIdentification(ctx, req.(*SetManualIdentificationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _DatalinkService_ClearManualIdentification_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ClearManualIdentificationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DatalinkServiceServer).ClearManualIdentification(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DatalinkService_ClearManualIdentification_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DatalinkServiceServer).ClearManualIdentification(ctx, req.(*ClearManualIdentificationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// DatalinkService_ServiceDesc is the grpc.ServiceDesc for DatalinkService.
var DatalinkService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DatalinkServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetTrack", Handler: _DatalinkService_GetTrack_Handler},
		{MethodName: "ListTracks", Handler: _DatalinkService_ListTracks_Handler},
		{MethodName: "SetManualIdentification", Handler: _DatalinkService_SetManualIdentification_Handler},
		{MethodName: "ClearManualIdentification", Handler: _DatalinkService_ClearManualIdentification_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "datalink.proto",
}
