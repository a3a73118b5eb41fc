package ctxmanage

import (
	"context"

	"github.com/gin-gonic/gin"
)

type Key string

// TraceIdKey is set on the request context by middleware.Logger for every
// incoming request.
const TraceIdKey Key = "1"

func WithTraceId(ctx context.Context, traceId string) context.Context {
	return context.WithValue(ctx, TraceIdKey, traceId)
}

func GetTraceIdOfRequest(c *gin.Context) string {
	ctx := c.Request.Context()

	traceId, ok := ctx.Value(TraceIdKey).(string)
	if !ok {
		return "unknown"
	}
	return traceId
}
