package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// serviceDesc is the grpc.ServiceDesc a protoc-gen-go-grpc plugin would
// normally emit. It is hand-written here because this repo has no .proto
// source; each handler shim below decodes the JSONCodec-marshaled
// request itself via dec, matching the shape generated code produces.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RegisterTransaction", Handler: registerTransactionHandler},
		{MethodName: "LockShared", Handler: lockSharedHandler},
		{MethodName: "LockExclusive", Handler: lockExclusiveHandler},
		{MethodName: "Unlock", Handler: unlockHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lockmanager.proto",
}

func registerTransactionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RegisterTransactionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.RegisterTransaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/RegisterTransaction"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.RegisterTransaction(ctx, req.(*RegisterTransactionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func lockSharedHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.LockShared(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/LockShared"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.LockShared(ctx, req.(*LockRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func lockExclusiveHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.LockExclusive(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/LockExclusive"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.LockExclusive(ctx, req.(*LockRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func unlockHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UnlockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.Unlock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Unlock"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.Unlock(ctx, req.(*UnlockRequest))
	}
	return interceptor(ctx, in, info, handler)
}
