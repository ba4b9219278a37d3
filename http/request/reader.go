package request

import (
	"bytes"
	"io"
	"net/http"
)

// Read reads the body and rewinds it, so it can be read again.
func Read(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body = io.NopCloser(bytes.NewReader(b))
	return b, nil
}
