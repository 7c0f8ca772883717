package security

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// Metadata keys identifying the calling actor.
const (
	MetadataHostname = "actor-hostname"
	MetadataUsername = "actor-username"
)

// ActorFromContext extracts the calling actor from incoming metadata.
func ActorFromContext(ctx context.Context) *domain.Actor {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}

	var (
		hostnames = md.Get(MetadataHostname)
		usernames = md.Get(MetadataUsername)
	)

	if len(hostnames) == 0 && len(usernames) == 0 {
		return nil
	}

	actor := new(domain.Actor)
	if len(hostnames) > 0 {
		actor.Hostname = hostnames[0]
	}

	if len(usernames) > 0 {
		actor.Username = usernames[0]
	}

	return actor
}

// ActorToContext attaches actor metadata to an outgoing context.
func ActorToContext(ctx context.Context, actor *domain.Actor) context.Context {
	if actor == nil {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx,
		MetadataHostname, actor.Hostname,
		MetadataUsername, actor.Username,
	)
}

// withCallLogger scopes the base logger to one call.
func withCallLogger(ctx, base context.Context, method string) context.Context {
	ctx = logger.ToContext(ctx, logger.FromContext(base))

	return logger.WithKV(ctx, "method", method, "actor", ActorFromContext(ctx).String())
}

// UnaryLoggingInterceptor attaches a call-scoped logger derived from base and logs the call.
func UnaryLoggingInterceptor(base context.Context) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = withCallLogger(ctx, base, info.FullMethod)

		logger.Debug(ctx, "Request received")

		resp, err := handler(ctx, req)
		if err != nil {
			logger.WarnKV(ctx, "Request failed", "error", err)
		}

		return resp, err
	}
}

// StreamLoggingInterceptor attaches a call-scoped logger to streaming calls.
func StreamLoggingInterceptor(base context.Context) grpc.StreamServerInterceptor {
	return func(srv any, stream grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := withCallLogger(stream.Context(), base, info.FullMethod)

		return handler(srv, &loggingStream{ServerStream: stream, ctx: ctx})
	}
}

// loggingStream overrides the stream context.
type loggingStream struct {
	grpc.ServerStream

	ctx context.Context //nolint:containedctx // Stream wrappers must carry the context.
}

// Context returns the call-scoped context.
func (s *loggingStream) Context() context.Context {
	return s.ctx
}
