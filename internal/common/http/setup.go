package http

import (
	"net/http"

	"github.com/AlibekovAA/relay-hub/internal/common/constants"
	"github.com/AlibekovAA/relay-hub/internal/common/httpmetrics"
	"github.com/AlibekovAA/relay-hub/internal/common/logger"
)

// BuildBaseHandler wraps the REST surface. WebSocket upgrades must be mounted
// outside of it since the size limit and metrics recorder break hijacking.
func BuildBaseHandler(log *logger.Logger, handler http.Handler) http.Handler {
	metrics := httpmetrics.New()
	recovery := RecoveryMiddleware(log)
	traceID := TraceIDMiddleware
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)
	securityHeaders := SecurityHeadersMiddleware
	csp := ContentSecurityPolicyMiddleware("")

	return securityHeaders(csp(recovery(traceID(maxRequestSize(metrics.Wrap(handler))))))
}
