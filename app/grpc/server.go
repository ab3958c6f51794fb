package grpc

import (
	gogrpc "google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewServer builds the gRPC server exposing the health service.
func NewServer(checker *HealthChecker, opts ...gogrpc.ServerOption) *gogrpc.Server {
	opts = append([]gogrpc.ServerOption{
		gogrpc.ChainUnaryInterceptor(LoggingUnaryInterceptor()),
		gogrpc.ChainStreamInterceptor(LoggingStreamInterceptor()),
	}, opts...)

	server := gogrpc.NewServer(opts...)
	healthpb.RegisterHealthServer(server, checker.Server())
	return server
}
