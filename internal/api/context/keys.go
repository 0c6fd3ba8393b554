package context

import "context"

type Key string

const (
	RequestID Key = "request_id"
	Params    Key = "params"
)

// RequestIDFrom returns the id assigned to the request, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RequestID).(string)
	return id
}
