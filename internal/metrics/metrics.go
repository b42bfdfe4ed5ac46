package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_tokens_issued_total",
		Help: "Access tokens issued, by grant type.",
	}, []string{"grant"})

	TokenErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_token_errors_total",
		Help: "Rejected token and authorization requests, by OAuth error code.",
	}, []string{"error"})

	AuthorizationCodesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oauth_authorization_codes_issued_total",
		Help: "Authorization codes issued after user approval.",
	})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_rate_limited_total",
		Help: "Requests rejected by the rate limiter, by route.",
	}, []string{"route"})
)

// Handler exposes the default registry for scraping.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
