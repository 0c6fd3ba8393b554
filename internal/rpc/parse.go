package rpc

import (
	"bytes"
	"encoding/json"
)

// Entry is one element of a request body: either a valid request or the
// error response that replaces it.
type Entry struct {
	Request *Request
	Invalid *Response
}

type wireRequest struct {
	JSONRPC json.RawMessage `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  json.RawMessage `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Parse splits body into entries. batch reports whether the body was an
// array. A non-nil failure means the body as a whole was rejected and no
// entry should be dispatched.
func Parse(body []byte) (entries []Entry, batch bool, failure *Response) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, false, ParseError(nil)
	}

	switch body[0] {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, true, ParseError(nil)
		}
		if len(raws) == 0 {
			return nil, true, InvalidRequest(nil)
		}
		entries = make([]Entry, 0, len(raws))
		for _, raw := range raws {
			entries = append(entries, parseEntry(raw))
		}
		return entries, true, nil
	case '{':
		return []Entry{parseEntry(body)}, false, nil
	default:
		return nil, false, InvalidRequest(nil)
	}
}

func parseEntry(raw json.RawMessage) Entry {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Entry{Invalid: InvalidRequest(nil)}
	}

	var wire wireRequest
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Entry{Invalid: InvalidRequest(nil)}
	}

	var version string
	if isNull(wire.JSONRPC) || json.Unmarshal(wire.JSONRPC, &version) != nil || version != Version {
		return Entry{Invalid: InvalidRequest(nil)}
	}

	var method string
	if isNull(wire.Method) || json.Unmarshal(wire.Method, &method) != nil || method == "" {
		return Entry{Invalid: InvalidRequest(nil)}
	}

	if !validID(wire.ID) {
		return Entry{Invalid: InvalidRequest(nil)}
	}

	req := &Request{JSONRPC: version, Method: method}
	if !isNull(wire.ID) {
		req.ID = wire.ID
	}
	if !isNull(wire.Params) {
		req.Params = wire.Params
	}
	return Entry{Request: req}
}

// validID accepts the id kinds JSON-RPC allows: absent, null, string or number.
func validID(id json.RawMessage) bool {
	if isNull(id) {
		return true
	}
	switch c := id[0]; {
	case c == '"':
		return true
	case c == '-' || (c >= '0' && c <= '9'):
		return true
	default:
		return false
	}
}
