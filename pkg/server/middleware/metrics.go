package middleware

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "adatlas_http_requests_total",
		Help: "HTTP requests served, by method and path.",
	},
	[]string{"method", "path"},
)

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requestsTotal.WithLabelValues(req.Method, req.URL.Path).Inc()
		next.ServeHTTP(w, req)
	})
}
