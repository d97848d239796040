package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/minigate/minigate/internal/router"
)

// MaxBodyBytes is the request body ceiling. Reads abort the moment the
// cumulative size crosses it, without waiting for the stream to finish.
const MaxBodyBytes = 1 << 20

var ErrBodyTooLarge = errors.New("request body too large")

// readBody streams the request body into memory under MaxBodyBytes.
func readBody(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 32*1024)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if buf.Len()+n > MaxBodyBytes {
				return nil, ErrBodyTooLarge
			}
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
	}
}

// parseBody acquires the body and decides its shape once, from the declared
// content type: JSON parses to a structured value, form encoding to a flat
// string map (last value wins), anything else is kept as raw text. Zero
// bytes yield BodyEmpty whatever the content type says.
func parseBody(r *http.Request) (router.Body, error) {
	if r.Body == nil {
		return router.Body{Kind: router.BodyEmpty}, nil
	}

	data, err := readBody(r.Body)
	if err != nil {
		return router.Body{}, err
	}
	if len(data) == 0 {
		return router.Body{Kind: router.BodyEmpty}, nil
	}

	ct := r.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))

	switch ct {
	case "application/json":
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return router.Body{}, fmt.Errorf("invalid JSON body: %v", err)
		}
		return router.Body{Kind: router.BodyJSON, JSON: v}, nil

	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(data))
		if err != nil {
			return router.Body{}, fmt.Errorf("malformed form body: %v", err)
		}
		form := make(map[string]string, len(values))
		for key, vals := range values {
			if len(vals) > 0 {
				form[key] = vals[len(vals)-1]
			}
		}
		return router.Body{Kind: router.BodyForm, Form: form}, nil

	default:
		return router.Body{Kind: router.BodyText, Text: string(data)}, nil
	}
}
