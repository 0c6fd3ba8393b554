package rpc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"mcpgate/internal/platform/auth"
)

// HandlerFunc serves one method. Returning an *Error sends it to the caller
// as is; any other error is logged and reported as an internal error.
type HandlerFunc func(ctx context.Context, id *auth.Identity, req *Request) (any, error)

// Dispatcher is a closed table of methods keyed by lower-cased name.
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// Handle registers h for method. Registering the same name twice panics.
func (d *Dispatcher) Handle(method string, h HandlerFunc) {
	key := strings.ToLower(method)
	if _, exists := d.handlers[key]; exists {
		panic(fmt.Sprintf("rpc: method %q registered twice", method))
	}
	d.handlers[key] = h
}

// Methods returns the registered method names in sorted order.
func (d *Dispatcher) Methods() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs a single validated request.
func (d *Dispatcher) Dispatch(ctx context.Context, id *auth.Identity, req *Request) (resp *Response) {
	h, ok := d.handlers[strings.ToLower(req.Method)]
	if !ok {
		return Failure(req.ID, MethodNotFoundError(req.Method))
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("method", req.Method).
				Interface("panic", r).
				Msg("rpc handler panicked")
			resp = Failure(req.ID, InternalError())
		}
	}()

	result, err := h(ctx, id, req)
	if err != nil {
		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			return Failure(req.ID, rpcErr)
		}
		event := log.Error().Err(err).Str("method", req.Method)
		if id != nil && id.APIKey != nil {
			event = event.Str("api_key_id", id.APIKey.ID)
		}
		event.Msg("rpc handler failed")
		return Failure(req.ID, InternalError())
	}
	return Success(req.ID, result)
}

// Process runs entries sequentially in order. Invalid entries are answered
// with their error; notifications are executed but left out of the result.
func (d *Dispatcher) Process(ctx context.Context, id *auth.Identity, entries []Entry) []*Response {
	responses := make([]*Response, 0, len(entries))
	for _, entry := range entries {
		if entry.Invalid != nil {
			responses = append(responses, entry.Invalid)
			continue
		}

		resp := d.Dispatch(ctx, id, entry.Request)
		if entry.Request.IsNotification() {
			continue
		}
		responses = append(responses, resp)
	}
	return responses
}
