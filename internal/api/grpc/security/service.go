package security

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "catpoint.v1.SecurityService"

// Method names of the service.
const (
	MethodGetStatus              = "GetStatus"
	MethodSetArmingStatus        = "SetArmingStatus"
	MethodListSensors            = "ListSensors"
	MethodAddSensor              = "AddSensor"
	MethodRemoveSensor           = "RemoveSensor"
	MethodChangeSensorActivation = "ChangeSensorActivation"
	MethodProcessImage           = "ProcessImage"
	MethodWatch                  = "Watch"
)

// SecurityServiceServer is the server API of the service.
type SecurityServiceServer interface {
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	SetArmingStatus(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	ListSensors(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
	AddSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RemoveSensor(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error)
	ChangeSensorActivation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ProcessImage(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error)
	Watch(req *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error
}

// ServiceDesc describes the service for grpc.Server registration.
//
//nolint:gochecknoglobals // Service descriptors are package-level by gRPC convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SecurityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodGetStatus, SecurityServiceServer.GetStatus),
		unary(MethodSetArmingStatus, SecurityServiceServer.SetArmingStatus),
		unary(MethodListSensors, SecurityServiceServer.ListSensors),
		unary(MethodAddSensor, SecurityServiceServer.AddSensor),
		unary(MethodRemoveSensor, SecurityServiceServer.RemoveSensor),
		unary(MethodChangeSensorActivation, SecurityServiceServer.ChangeSensorActivation),
		unary(MethodProcessImage, SecurityServiceServer.ProcessImage),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    MethodWatch,
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "catpoint/v1/security.proto",
}

// RegisterSecurityServiceServer registers srv on the given registrar.
func RegisterSecurityServiceServer(registrar grpc.ServiceRegistrar, srv SecurityServiceServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// fullMethod returns the "/service/method" path of a method.
func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unary builds the descriptor of a unary method from a method expression.
func unary[Req, Res any](
	name string,
	call func(SecurityServiceServer, context.Context, *Req) (*Res, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(
			srv any,
			ctx context.Context,
			dec func(any) error,
			interceptor grpc.UnaryServerInterceptor,
		) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}

			server, _ := srv.(SecurityServiceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(name),
			}

			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				typed, _ := req.(*Req)
				return call(server, ctx, typed)
			})
		},
	}
}

// watchHandler adapts the generic stream to the typed Watch method.
func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	server, _ := srv.(SecurityServiceServer)

	return server.Watch(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// SecurityServiceClient is the client API of the service.
type SecurityServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSecurityServiceClient creates a client over the given connection.
func NewSecurityServiceClient(cc grpc.ClientConnInterface) *SecurityServiceClient {
	return &SecurityServiceClient{cc: cc}
}

// GetStatus returns the system snapshot.
func (c *SecurityServiceClient) GetStatus(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodGetStatus, in, opts...)
}

// SetArmingStatus changes the arming mode.
func (c *SecurityServiceClient) SetArmingStatus(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodSetArmingStatus, in, opts...)
}

// ListSensors returns all sensors.
func (c *SecurityServiceClient) ListSensors(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, MethodListSensors, in, opts...)
}

// AddSensor creates a sensor.
func (c *SecurityServiceClient) AddSensor(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodAddSensor, in, opts...)
}

// RemoveSensor deletes a sensor.
func (c *SecurityServiceClient) RemoveSensor(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, MethodRemoveSensor, in, opts...)
}

// ChangeSensorActivation sets the active flag of a sensor.
func (c *SecurityServiceClient) ChangeSensorActivation(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodChangeSensorActivation, in, opts...)
}

// ProcessImage submits a camera frame.
func (c *SecurityServiceClient) ProcessImage(
	ctx context.Context,
	in *wrapperspb.BytesValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodProcessImage, in, opts...)
}

// Watch subscribes to coordinator events.
func (c *SecurityServiceClient) Watch(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], fullMethod(MethodWatch), opts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err = x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}

	if err = x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}

// invoke performs a unary call and decodes the reply into a new Res.
func invoke[Res any](
	ctx context.Context,
	cc grpc.ClientConnInterface,
	method string,
	in any,
	opts ...grpc.CallOption,
) (*Res, error) {
	out := new(Res)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
