// Package httputil contains helpers shared by the HTTP middlewares.
package httputil

import (
	"net/http"
)

// ResponseWriterRecorder records the status code and size of a response
// while passing writes through.
type ResponseWriterRecorder struct {
	http.ResponseWriter
	code        int
	size        int
	wroteHeader bool
}

func NewResponseWriterRecorder(w http.ResponseWriter) *ResponseWriterRecorder {
	return &ResponseWriterRecorder{
		ResponseWriter: w,
		code:           http.StatusOK,
	}
}

func (w *ResponseWriterRecorder) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *ResponseWriterRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(w.code)
	}

	n, err := w.ResponseWriter.Write(b)
	w.size += n

	return n, err
}

// Flush implements http.Flusher when the underlying writer supports it.
func (w *ResponseWriterRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *ResponseWriterRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *ResponseWriterRecorder) StatusCode() int {
	return w.code
}

func (w *ResponseWriterRecorder) Size() int {
	return w.size
}

func (w *ResponseWriterRecorder) WroteHeader() bool {
	return w.wroteHeader
}
