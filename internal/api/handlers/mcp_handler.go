package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/rs/zerolog/log"
	apiContext "mcpgate/internal/api/context"
	"mcpgate/internal/api/middleware"
	"mcpgate/internal/platform/audit"
	"mcpgate/internal/platform/auth"
	"mcpgate/internal/rpc"
)

const contentTypeMessage = "Request must have content type: 'application/json'"

type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*auth.Identity, error)
}

type MCPHandler struct {
	authn        Authenticator
	dispatcher   *rpc.Dispatcher
	maxBodyBytes int64
}

func NewMCPHandler(authn Authenticator, dispatcher *rpc.Dispatcher, maxBodyBytes int64) *MCPHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &MCPHandler{authn: authn, dispatcher: dispatcher, maxBodyBytes: maxBodyBytes}
}

// Handle serves POST /mcp. Every outcome, including authentication
// failures, is a JSON-RPC body with HTTP 200, except a request made only of
// notifications, which gets 202 and no body.
func (h *MCPHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !isJSON(r.Header.Get("Content-Type")) {
		writeRPC(w, rpc.InvalidRequest(contentTypeMessage))
		return
	}

	identity, err := h.authn.Authenticate(ctx, r.Header.Get("Authorization"))
	if err != nil {
		if auth.IsAuthenticationFailure(err) {
			writeRPC(w, rpc.Unauthenticated(auth.FailureMessage(err)))
			return
		}
		log.Error().Err(err).
			Str("request_id", apiContext.RequestIDFrom(ctx)).
			Msg("authentication failed")
		writeRPC(w, rpc.Failure(nil, rpc.InternalError()))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeRPC(w, rpc.InvalidRequest("Request body too large"))
			return
		}
		writeRPC(w, rpc.ParseError(nil))
		return
	}

	entries, batch, failure := rpc.Parse(body)
	if failure != nil {
		writeRPC(w, failure)
		return
	}

	ctx = audit.WithClient(ctx, middleware.ClientIP(r), r.UserAgent())
	responses := h.dispatcher.Process(ctx, identity, entries)

	log.Debug().
		Str("request_id", apiContext.RequestIDFrom(ctx)).
		Str("organization_id", identity.Organization.ID).
		Str("api_key_id", identity.APIKey.ID).
		Int("entries", len(entries)).
		Int("responses", len(responses)).
		Msg("mcp request processed")

	// A lone notification answers null, a batch of notifications [].
	switch {
	case batch:
		writeRPC(w, responses)
	case len(responses) == 0:
		writeRPC(w, nil)
	default:
		writeRPC(w, responses[0])
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

func writeRPC(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write rpc response")
	}
}
