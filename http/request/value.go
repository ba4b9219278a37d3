package request

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/alextanhongpin/errors/cause"
	"github.com/alextanhongpin/errors/codes"
)

// Value is a raw string taken from the query or path, with
// conversion helpers.
//
//	id, err := request.PathValue(r, "item_id").Int("item_id")
//	q := request.QueryValue(r, "q").Ptr()
type Value string

func QueryValue(r *http.Request, name string) Value {
	return Value(r.URL.Query().Get(name))
}

func PathValue(r *http.Request, name string) Value {
	return Value(r.PathValue(name))
}

func (v Value) String() string {
	return strings.TrimSpace(string(v))
}

func (v Value) IsEmpty() bool {
	return v.String() == ""
}

// Ptr returns nil for an empty value, which encodes as JSON null.
func (v Value) Ptr() *string {
	if v.IsEmpty() {
		return nil
	}

	s := v.String()
	return &s
}

// Int parses the value as an integer. The field name is used in the error
// message.
func (v Value) Int(field string) (int, error) {
	n, err := strconv.Atoi(v.String())
	if err != nil {
		return 0, cause.New(codes.BadRequest, "request/invalid_param", field+" must be an integer")
	}

	return n, nil
}
