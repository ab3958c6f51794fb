package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingUnaryInterceptor logs every unary call and turns a handler panic
// into codes.Internal.
func LoggingUnaryInterceptor() gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				err = recovered(info.FullMethod, r)
			}
			logCall(info.FullMethod, start, err)
		}()
		return handler(ctx, req)
	}
}

func LoggingStreamInterceptor() gogrpc.StreamServerInterceptor {
	return func(srv any, ss gogrpc.ServerStream, info *gogrpc.StreamServerInfo, handler gogrpc.StreamHandler) (err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				err = recovered(info.FullMethod, r)
			}
			logCall(info.FullMethod, start, err)
		}()
		return handler(srv, ss)
	}
}

func recovered(method string, r any) error {
	logrus.WithFields(logrus.Fields{
		"method": method,
		"panic":  fmt.Sprint(r),
	}).Error("Recovered from panic in gRPC handler")
	return status.Error(codes.Internal, "internal server error")
}

func logCall(method string, start time.Time, err error) {
	entry := logrus.WithFields(logrus.Fields{
		"method":     method,
		"code":       status.Code(err).String(),
		"latency":    time.Since(start).String(),
		"latency_ns": time.Since(start).Nanoseconds(),
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("grpc_request")
}
