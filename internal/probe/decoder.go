package probe

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Decoder turns raw probe stdout into a structured value. JSON is the
// format today; the aggregator only sees this contract.
type Decoder interface {
	Decode(raw []byte) (map[string]interface{}, error)
}

// JSONDecoder expects a single JSON object on stdout
type JSONDecoder struct{}

func (JSONDecoder) Decode(raw []byte) (map[string]interface{}, error) {
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("output is not valid UTF-8")
	}

	var value map[string]interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("output is not a JSON object: %w", err)
	}
	// A bare null unmarshals into a nil map without error
	if value == nil {
		return nil, fmt.Errorf("output is not a JSON object")
	}
	return value, nil
}
