package codec

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

func Decode[T any](bz []byte) (T, error) {
	value := new(T)
	err := json.Unmarshal(bz, value)
	if err != nil {
		return *value, eris.Wrap(err, "")
	}
	return *value, nil
}

// DecodeInto unmarshals into an existing value, for callers that cannot
// name the type at compile time.
func DecodeInto(bz []byte, out any) error {
	return eris.Wrap(json.Unmarshal(bz, out), "")
}

func Encode(value any) ([]byte, error) {
	bz, err := json.Marshal(value)
	if err != nil {
		return nil, eris.Wrap(err, "")
	}
	return bz, nil
}
