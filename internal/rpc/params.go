package rpc

import "encoding/json"

// DecodeParams decodes optional params. Absent params decode to the zero value.
func DecodeParams[T any](params json.RawMessage) (*T, error) {
	var result T
	if isNull(params) {
		return &result, nil
	}
	if err := json.Unmarshal(params, &result); err != nil {
		return nil, InvalidParamsError(err.Error())
	}
	return &result, nil
}

// DecodeParamsRequired decodes params that must be present.
func DecodeParamsRequired[T any](params json.RawMessage) (*T, error) {
	if isNull(params) {
		return nil, InvalidParamsError("params required")
	}
	return DecodeParams[T](params)
}
