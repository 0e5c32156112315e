package middlewares

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// untracedPaths are probe and scrape endpoints that would only add noise.
var untracedPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
	"/metrics": {},
}

// tracedParams are route parameters copied onto the span as messaging attributes.
var tracedParams = map[string]string{
	"conversation_id": "messaging.conversation_id",
	"message_id":      "messaging.message_id",
	"notification_id": "messaging.notification_id",
	"user_id":         "messaging.target_user_id",
}

// TracingMiddleware opens a server span per request, continuing any W3C trace
// context sent by the gateway.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(serviceName)

	return func(c *gin.Context) {
		if _, skip := untracedPaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(c.Request.Method),
				semconv.HTTPRoute(route),
				semconv.URLPath(c.Request.URL.Path),
				semconv.UserAgentOriginal(c.Request.UserAgent()),
			),
		)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		if requestID := RequestIDFromContext(c); requestID != "" {
			span.SetAttributes(attribute.String("request.id", requestID))
		}
		for _, p := range c.Params {
			if key, ok := tracedParams[p.Key]; ok {
				if id, err := strconv.ParseUint(p.Value, 10, 64); err == nil {
					span.SetAttributes(attribute.Int64(key, int64(id)))
				}
			}
		}

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
		if principal, ok := PrincipalFromContext(c); ok {
			span.SetAttributes(
				attribute.Int64("tieba.user_id", int64(principal.UserID)),
				attribute.String("tieba.auth_method", string(principal.AuthMethod)),
			)
		}
		if status >= 500 {
			span.SetStatus(codes.Error, c.Errors.String())
			if err := c.Errors.Last(); err != nil {
				span.RecordError(err)
			}
		}
	}
}
