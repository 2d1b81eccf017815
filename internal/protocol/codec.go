package protocol

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Encode marshals v and appends the line terminator.
func Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WithMessage(err, "marshal json")
	}
	return append(b, '\n'), nil
}

// MustEncode is Encode for the package's own response types, which cannot
// fail to marshal.
func MustEncode(v any) []byte {
	b, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Decode parses one request line.
func Decode(line []byte) (Request, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Request{}, errors.New("empty request")
	}
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, errors.WithMessage(err, "malformed request")
	}
	return req, nil
}

// Fail builds the encoded rejection for err.
func Fail(err error) []byte {
	return MustEncode(Failure{OK: false, Error: err.Error()})
}
