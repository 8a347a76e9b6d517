package service

import (
	"encoding/json"
	"fmt"
)

// jsonCodec replaces Connect's built-in "json" codec, which only accepts
// protobuf messages, with plain encoding/json over the message structs.
type jsonCodec struct{}

// Codec is the codec every handler and client in this package uses.
var Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("invalid json payload: %w", err)
	}
	return nil
}
