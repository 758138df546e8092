/**
 * @description
 * Middleware for the PayID APIs: protocol version negotiation, per-client
 * rate limiting and the admin API key check.
 */
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	payIDVersionHeader       = "PayID-Version"
	payIDServerVersionHeader = "PayID-Server-Version"
)

// LookupRateLimiter counts requests per client.
type LookupRateLimiter interface {
	Allow(ctx context.Context, subject string, limit int, window time.Duration) (bool, int, error)
}

type protocolVersion struct {
	major, minor int
}

func parseProtocolVersion(raw string) (protocolVersion, error) {
	majorStr, minorStr, ok := strings.Cut(strings.TrimSpace(raw), ".")
	if !ok {
		return protocolVersion{}, fmt.Errorf("version %q must be of the form major.minor", raw)
	}
	major, err := strconv.Atoi(majorStr)
	if err != nil || major < 0 {
		return protocolVersion{}, fmt.Errorf("version %q has an invalid major version", raw)
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil || minor < 0 {
		return protocolVersion{}, fmt.Errorf("version %q has an invalid minor version", raw)
	}
	return protocolVersion{major: major, minor: minor}, nil
}

func (v protocolVersion) newerThan(other protocolVersion) bool {
	if v.major != other.major {
		return v.major > other.major
	}
	return v.minor > other.minor
}

// PayIDVersionMiddleware requires a PayID-Version request header no newer than
// serverVersion and stamps PayID-Server-Version on every response.
func PayIDVersionMiddleware(serverVersion string) func(http.Handler) http.Handler {
	server, err := parseProtocolVersion(serverVersion)
	if err != nil {
		panic(err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(payIDServerVersionHeader, serverVersion)

			raw := r.Header.Get(payIDVersionHeader)
			if raw == "" {
				respondWithError(w, http.StatusBadRequest, "A PayID-Version header is required in the request.")
				return
			}

			requested, err := parseProtocolVersion(raw)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid PayID-Version header: %v.", err))
				return
			}
			if requested.newerThan(server) {
				respondWithError(w, http.StatusBadRequest, fmt.Sprintf(
					"The PayID-Version %s is not supported, please try downgrading your request to PayID-Version %s.",
					raw, serverVersion))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware limits requests per client IP. Limiter errors let the
// request through.
func RateLimitMiddleware(limiter LookupRateLimiter, requestsPerMinute int, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		if limiter == nil || requestsPerMinute <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			allowed, retryAfter, err := limiter.Allow(r.Context(), clientIP, requestsPerMinute, time.Minute)
			if err != nil {
				logger.Warn("rate limiter unavailable; allowing request", "client_ip", clientIP, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP expects chi's RealIP middleware to have rewritten RemoteAddr.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// InternalAuthMiddleware validates optional internal API key for server-to-server calls.
func InternalAuthMiddleware(requiredKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiredKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-Internal-API-Key")
			if provided == "" || provided != requiredKey {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
