// Package json routes every encode/decode in the service through json-iterator
// configured to behave exactly like encoding/json.
package json

import jsoniter "github.com/json-iterator/go"

var (
	// JSON is the jsoniter.API shared by the cache codec and the HTTP layer.
	JSON = jsoniter.ConfigCompatibleWithStandardLibrary

	Marshal    = JSON.Marshal
	Unmarshal  = JSON.Unmarshal
	NewDecoder = JSON.NewDecoder
	NewEncoder = JSON.NewEncoder
)

// RawMessage is a raw encoded JSON value.
type RawMessage = jsoniter.RawMessage

// Decode unmarshals data into a fresh value of type T.
func Decode[T any](data []byte) (T, error) {
	var v T
	err := Unmarshal(data, &v)
	return v, err
}
