package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth event names
const (
	EventRegister       = "register"
	EventLogin          = "login"
	EventRefresh        = "refresh"
	EventForgotPassword = "forgot_password"
	EventResetPassword  = "reset_password"
	EventVerifyEmail    = "verify_email"
	EventChangePassword = "change_password"
	EventUpgradeRole    = "upgrade_role"
	EventGuard          = "guard"
)

var (
	authEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donorhub_auth_events_total",
			Help: "Auth use-case outcomes by event and result kind",
		},
		[]string{"event", "outcome"},
	)
	emailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donorhub_emails_total",
			Help: "Outbound email attempts by template and success",
		},
		[]string{"template", "success"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "donorhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordAuthEvent counts a use-case outcome. outcome is "ok" or an error kind.
func RecordAuthEvent(event, outcome string) {
	authEvents.WithLabelValues(event, outcome).Inc()
}

// RecordEmail counts an email send attempt
func RecordEmail(template string, success bool) {
	emailsSent.WithLabelValues(template, strconv.FormatBool(success)).Inc()
}

// ObserveRequest records one HTTP request. route is the registered pattern
// (e.g. /api/v1/users/:id), not the raw path.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler exposes the default registry through Fiber
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
