package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// Envelope mirrors the JSON body written by pkg/response.
type Envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// Response is a recorded handler response.
type Response struct {
	*httptest.ResponseRecorder
	t *testing.T
}

// Envelope decodes the body as a response envelope.
func (r *Response) Envelope() Envelope {
	r.t.Helper()
	var env Envelope
	require.NoError(r.t, json.Unmarshal(r.Body.Bytes(), &env), "body: %s", r.Body.String())
	return env
}

// Data decodes the envelope's data field into dest.
func (r *Response) Data(dest any) {
	r.t.Helper()
	env := r.Envelope()
	require.NoError(r.t, json.Unmarshal(env.Data, dest), "data: %s", string(env.Data))
}

// Cookie returns the named response cookie or nil.
func (r *Response) Cookie(name string) *http.Cookie {
	for _, c := range r.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Request describes one call to a handler.
type Request struct {
	Method      string
	Path        string
	JSON        any    // marshalled as the body when set
	Body        []byte // raw body when JSON is nil
	ContentType string
	Cookies     []*http.Cookie
	Headers     map[string]string
}

// Do runs req against h and records the response.
func Do(t *testing.T, h http.Handler, req Request) *Response {
	t.Helper()

	var body io.Reader
	contentType := req.ContentType
	switch {
	case req.JSON != nil:
		b, err := json.Marshal(req.JSON)
		require.NoError(t, err)
		body = bytes.NewReader(b)
		if contentType == "" {
			contentType = "application/json"
		}
	case req.Body != nil:
		body = bytes.NewReader(req.Body)
	}

	r := httptest.NewRequest(req.Method, req.Path, body)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}
	for _, c := range req.Cookies {
		r.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return &Response{ResponseRecorder: rec, t: t}
}
