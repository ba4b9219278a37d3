package response

type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Errors  map[string]any `json:"errors,omitempty"`
}

// Body is the envelope of every JSON response.
type Body struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}
