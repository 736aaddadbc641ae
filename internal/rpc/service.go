// Package rpc exposes the keyword event group over gRPC. The service uses
// protobuf well-known types so no generated code is needed:
//
//	service KeywordSource {
//	  rpc Raise(google.protobuf.UInt32Value) returns (google.protobuf.Empty);
//	  rpc Publish(stream google.protobuf.UInt32Value) returns (google.protobuf.Empty);
//	}
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "kwhmi.KeywordSource"

const (
	raiseMethod   = "/" + ServiceName + "/Raise"
	publishMethod = "/" + ServiceName + "/Publish"
)

// KeywordSourceServer is implemented by Server.
type KeywordSourceServer interface {
	Raise(context.Context, *wrapperspb.UInt32Value) (*emptypb.Empty, error)
	Publish(PublishStream) error
}

// PublishStream is the server side of a Publish call.
type PublishStream interface {
	Recv() (*wrapperspb.UInt32Value, error)
	SendAndClose(*emptypb.Empty) error
	grpc.ServerStream
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*KeywordSourceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Raise", Handler: raiseHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Publish", Handler: publishHandler, ClientStreams: true},
	},
	Metadata: "kwhmi/keyword_source.proto",
}

func Register(s grpc.ServiceRegistrar, srv KeywordSourceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func raiseHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.UInt32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KeywordSourceServer).Raise(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: raiseMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(KeywordSourceServer).Raise(ctx, req.(*wrapperspb.UInt32Value))
	}
	return interceptor(ctx, in, info, handler)
}

func publishHandler(srv any, stream grpc.ServerStream) error {
	return srv.(KeywordSourceServer).Publish(&publishStream{stream})
}

type publishStream struct{ grpc.ServerStream }

func (x *publishStream) Recv() (*wrapperspb.UInt32Value, error) {
	m := new(wrapperspb.UInt32Value)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (x *publishStream) SendAndClose(m *emptypb.Empty) error { return x.ServerStream.SendMsg(m) }
