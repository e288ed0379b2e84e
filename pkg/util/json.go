package util

import (
	"encoding/json"
	"fmt"
	"io"
)

const (
	maxJSONBody = 1024 * 1024
)

// ReadJSONFromBody decodes the request body into the value, a empty body
// keeps the value and a body over 1MB is refused
func ReadJSONFromBody(from io.ReadCloser, value interface{}) error {
	defer from.Close()

	data, err := io.ReadAll(io.LimitReader(from, maxJSONBody+1))
	if err != nil {
		return err
	}

	if len(data) > maxJSONBody {
		return fmt.Errorf("json body over %d bytes", maxJSONBody)
	}

	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, value)
}
