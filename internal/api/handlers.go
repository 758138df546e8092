/**
 * @description
 * HTTP handlers for the public PayID resolution API and the admin API.
 */
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/wangpengwen/payid/internal/app"
	"github.com/wangpengwen/payid/internal/negotiation"
)

const (
	missingAcceptMessage = `Missing Accept header. Must have an Accept header of the form "application/{payment_network}(-{environment})+json".`
	invalidAcceptMessage = `Invalid Accept header. Must be of the form "application/{payment_network}(-{environment})+json".`
)

// Resolver is the resolution entry point the handlers depend on.
type Resolver interface {
	Resolve(ctx context.Context, hostedURL string, acceptTokens []string) (*app.Resolution, error)
}

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the resolver that the public handlers interact with.
type Handler struct {
	resolver Resolver
	logger   *slog.Logger
}

// NewHandler creates a new Handler with the given resolver.
func NewHandler(resolver Resolver, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{resolver: resolver, logger: logger}
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	res, err := h.resolver.Resolve(r.Context(), hostedURL(r), acceptTokens(r.Header.Values("Accept")))
	if err != nil {
		h.respondWithResolveError(w, r, err)
		return
	}

	respondWithContentType(w, http.StatusOK, res.ContentType, res.Payment)
}

func (h *Handler) respondWithResolveError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *app.NotFoundError
	switch {
	case errors.Is(err, app.ErrInvalidIdentifier):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrMissingAcceptHeader):
		respondWithError(w, http.StatusBadRequest, missingAcceptMessage)
	case errors.Is(err, app.ErrInvalidAcceptHeader):
		message := invalidAcceptMessage
		var mediaErr *negotiation.InvalidMediaTypeError
		if errors.As(err, &mediaErr) {
			message += " Received: " + mediaErr.Token
		}
		respondWithError(w, http.StatusBadRequest, message)
	case errors.As(err, &notFound):
		respondWithError(w, http.StatusNotFound, notFound.Error())
	default:
		h.logger.Error("payid resolution failed", "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// hostedURL rebuilds the URL the PayID was requested at.
func hostedURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}

// acceptTokens splits every Accept header value on commas, in order,
// dropping empty segments.
func acceptTokens(values []string) []string {
	var tokens []string
	for _, value := range values {
		for _, segment := range strings.Split(value, ",") {
			if segment = strings.TrimSpace(segment); segment != "" {
				tokens = append(tokens, segment)
			}
		}
	}
	return tokens
}

func handleHealth(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := pinger.Ping(ctx); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{
		StatusCode: code,
		Error:      http.StatusText(code),
		Message:    message,
	})
}

// respondWithJSON writes JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	respondWithContentType(w, code, "application/json", payload)
}

func respondWithContentType(w http.ResponseWriter, code int, contentType string, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(code)
	w.Write(response)
}
