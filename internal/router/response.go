package router

// Response is the canonical output of a handler or of a short-circuiting
// middleware. The pipeline serializes it onto the wire: Raw bodies are
// written verbatim as bytes, string bodies verbatim as text, nil bodies end
// the response with no payload, and anything else is JSON-encoded.
type Response struct {
	Status  int
	Body    any
	Headers map[string]string
	Raw     bool
}

// SetHeader sets a response header, allocating the map on first use.
func (r *Response) SetHeader(key, value string) *Response {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}
