package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/nfse-extractor/internal/common"
)

// RequestIDHeader is the metadata key a caller may set to correlate logs.
const RequestIDHeader = "x-request-id"

// LoggingInterceptor tags each call with a request ID and a scoped logger,
// then logs its outcome.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(RequestIDHeader); len(v) > 0 {
				reqID = v[0]
			}
		}
		if reqID == "" {
			reqID = uuid.NewString()
		}
		l := logger.With("request_id", reqID, "method", info.FullMethod)
		ctx = common.WithLogger(common.WithRequestID(ctx, reqID), l)

		resp, err := handler(ctx, req)
		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			l.Warn("server.call.failed", "code", status.Code(err).String(), "elapsed_ms", elapsed, "err", err)
			return nil, err
		}
		l.Info("server.call.ok", "elapsed_ms", elapsed)
		return resp, nil
	}
}
