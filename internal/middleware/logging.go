package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/CrownAlter/task-management-api/pkg/logger"
	"github.com/CrownAlter/task-management-api/pkg/response"
	"github.com/CrownAlter/task-management-api/pkg/telemetry"
)

// Observe traces each request, records its duration and writes one access
// log line when it completes
func Observe(log *logger.Logger) gin.HandlerFunc {
	duration, err := telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        telemetry.MetricRequestDurationMs,
		Description: "HTTP request duration",
		Unit:        "ms",
	})
	if err != nil {
		log.Warn("request duration histogram disabled", zap.Error(err))
	}

	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := telemetry.StartSpan(c.Request.Context(), fmt.Sprintf("%s %s", c.Request.Method, route),
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start)
		attrs := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", route),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		}
		if tenantID, ok := c.Get(ContextKeyTenantID); ok {
			attrs = append(attrs, zap.Any("tenant_id", tenantID))
		}
		if userID, ok := c.Get(ContextKeyUserID); ok {
			attrs = append(attrs, zap.Any("user_id", userID))
		}

		telemetry.SetSpanAttributes(ctx,
			telemetry.MethodAttr(c.Request.Method),
			telemetry.PathAttr(route),
			telemetry.StatusCodeAttr(status),
		)
		if duration != nil {
			duration.Record(ctx, float64(elapsed.Microseconds())/1000,
				telemetry.MethodAttr(c.Request.Method),
				telemetry.PathAttr(route),
				telemetry.StatusCodeAttr(status),
			)
		}

		l := log.WithContext(ctx)
		switch {
		case status >= http.StatusInternalServerError:
			if len(c.Errors) > 0 {
				attrs = append(attrs, zap.String("error", c.Errors.String()))
				telemetry.SetSpanError(ctx, c.Errors.Last())
			}
			l.Error("request failed", attrs...)
		case status >= http.StatusBadRequest:
			l.Warn("request rejected", attrs...)
		default:
			l.Info("request completed", attrs...)
		}
	}
}

// Recovery turns a panic into a 500 response and logs it
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithContext(c.Request.Context()).Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.InternalError(""))
	})
}
