package rpc

import "fmt"

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Server-defined codes (-32000 to -32099).
const (
	CodeUnauthenticated = -32001
	CodeUnauthorized    = -32002
)

var errorMessages = map[int]string{
	CodeParseError:      "Parse error",
	CodeInvalidRequest:  "Invalid Request",
	CodeMethodNotFound:  "Method not found",
	CodeInvalidParams:   "Invalid params",
	CodeInternalError:   "Internal error",
	CodeUnauthenticated: "Authentication Required",
	CodeUnauthorized:    "Authorization Required",
}

// NewError creates an error with the standard message for code.
func NewError(code int, data any) *Error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = "Server error"
	}
	return &Error{Code: code, Message: msg, Data: data}
}

func (e *Error) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("%s (%d): %v", e.Message, e.Code, e.Data)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

// InvalidRequest is never correlated with a caller id.
func InvalidRequest(data any) *Response {
	return Failure(nil, NewError(CodeInvalidRequest, data))
}

func ParseError(data any) *Response {
	return Failure(nil, NewError(CodeParseError, data))
}

// Unauthenticated is returned once for the whole HTTP request, before any
// entry is dispatched.
func Unauthenticated(data any) *Response {
	return Failure(nil, NewError(CodeUnauthenticated, data))
}

// MethodNotFoundError names the method the caller asked for.
func MethodNotFoundError(method string) *Error {
	return NewError(CodeMethodNotFound, fmt.Sprintf("Method '%s' is not supported", method))
}

func InvalidParamsError(data any) *Error {
	return NewError(CodeInvalidParams, data)
}

func UnauthorizedError(data any) *Error {
	return NewError(CodeUnauthorized, data)
}

// InternalError hides the cause from the caller; it is logged by the dispatcher.
func InternalError() *Error {
	return NewError(CodeInternalError, nil)
}
