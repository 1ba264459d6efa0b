package endpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NoResponse is the result type of endpoints whose body is ignored.
// Any 200 response, including an empty one, decodes into it.
type NoResponse struct{}

// Decoder turns a response body into a value.
type Decoder[T any] func(body []byte) (*T, error)

// JSONDecoder returns the default Decoder. An empty body is an error
// unless T is NoResponse.
func JSONDecoder[T any]() Decoder[T] {
	return decodeJSON[T]
}

func decodeJSON[T any](body []byte) (*T, error) {
	var v T
	if _, ok := any(v).(NoResponse); ok {
		return &v, nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
