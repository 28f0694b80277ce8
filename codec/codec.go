// Package codec converts engine values to and from JSON.
package codec

import (
	"bytes"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// Decode unmarshals bz into a new T.
func Decode[T any](bz []byte) (T, error) {
	v := new(T)
	if err := json.Unmarshal(bz, v); err != nil {
		return *v, eris.Wrap(err, "failed to decode")
	}
	return *v, nil
}

// DecodeStrict is like Decode but rejects fields that T does not declare.
func DecodeStrict[T any](bz []byte) (T, error) {
	v := new(T)
	dec := json.NewDecoder(bytes.NewReader(bz))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return *v, eris.Wrap(err, "failed to decode")
	}
	return *v, nil
}

// Encode marshals v.
func Encode(v any) ([]byte, error) {
	bz, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "failed to encode")
	}
	return bz, nil
}
