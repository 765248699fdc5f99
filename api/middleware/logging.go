package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/fulfillment-router/pkg/logger"
)

type callerKey struct{}

// requestCaller is filled in by Auth so the completion line can name the
// user and vendor behind the request.
type requestCaller struct {
	userID   string
	vendorID string
}

func noteCaller(ctx context.Context, userID, vendorID string) {
	if c, ok := ctx.Value(callerKey{}).(*requestCaller); ok {
		c.userID = userID
		c.vendorID = vendorID
	}
}

// Logging writes request.start and request.complete. The completion line
// carries the matched route, status, response size and, for authenticated
// calls, user_id and vendor_id.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := &requestCaller{}
			ctx := context.WithValue(r.Context(), callerKey{}, caller)
			ctx = logg.WithFields(ctx, map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			logg.Debug(ctx, "request.start")

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))

			fields := map[string]any{
				"status":      rec.statusOrOK(),
				"bytes":       rec.bytes,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
				fields["route"] = rctx.RoutePattern()
			}
			if caller.userID != "" {
				fields["user_id"] = caller.userID
			}
			if caller.vendorID != "" {
				fields["vendor_id"] = caller.vendorID
			}
			logg.Info(logg.WithFields(ctx, fields), "request.complete")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) statusOrOK() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
