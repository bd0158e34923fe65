package mcp

import (
	"context"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultRequestTimeout = 5 * time.Second

type ServerConfig struct {
	RequestTimeout time.Duration
}

// NewServer exposes the signal history read-only to MCP clients over stdio.
func NewServer(tracer trace.Tracer, signals SignalReader, stats StatsReader, cfg ServerConfig) *sdkmcp.Server {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "signal-desk-mcp",
		Version: "1.0.0",
	}, &sdkmcp.ServerOptions{
		Instructions: "Use these tools to inspect published trading signals, saved trade links, and aggregate statistics.",
		Logger:       slog.Default(),
	})

	srv.AddReceivingMiddleware(timeoutMiddleware(requestTimeout))
	if tracer != nil {
		srv.AddReceivingMiddleware(tracingMiddleware(tracer))
	}

	registerTools(srv, signals, stats)
	return srv
}

// Run serves the stdio transport until ctx is cancelled.
func Run(ctx context.Context, srv *sdkmcp.Server) error {
	return srv.Run(ctx, &sdkmcp.StdioTransport{})
}

func timeoutMiddleware(timeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if timeout <= 0 {
				return next(ctx, method, req)
			}
			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(timeoutCtx, method, req)
		}
	}
}

func tracingMiddleware(tracer trace.Tracer) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx, span := tracer.Start(ctx, "mcp."+method)
			span.SetAttributes(attribute.String("mcp.method", method))
			defer span.End()

			if callReq, ok := req.(*sdkmcp.CallToolRequest); ok {
				span.SetAttributes(attribute.String("mcp.tool", strings.TrimSpace(callReq.Params.Name)))
			}
			return next(ctx, method, req)
		}
	}
}
