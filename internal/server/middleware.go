package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "gorc_http_requests_total", Help: "http requests by code, route and method"},
		[]string{"code", "route", "method"},
	)

	httpDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gorc_http_response_seconds",
			Help:    "http response time.",
			Buckets: []float64{0.005, 0.05, 0.5, 1, 5, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration)
}

// accessLog writes one line per request.
func accessLog(l *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				l.Info("request",
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.String("httpMethod", r.Method),
					zap.String("uri", r.URL.Path),
					zap.String("remoteAddr", r.RemoteAddr),
					zap.Duration("lat", time.Since(start)),
					zap.Int("responseSize", ww.BytesWritten()),
					zap.Int("status", ww.Status()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// collect records request counters and latency. The route pattern is used
// as the label so instance ids don't grow the series count.
func collect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			if r.URL.Path == "/metrics" {
				return
			}
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			httpRequests.WithLabelValues(strconv.Itoa(ww.Status()), route, r.Method).Inc()
			httpDuration.Observe(time.Since(start).Seconds())
		}()
		next.ServeHTTP(ww, r)
	})
}
