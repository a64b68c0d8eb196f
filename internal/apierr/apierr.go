// Package apierr reads error bodies from the upstream JSON APIs.
package apierr

import (
	"encoding/json"
	"io"
	"net/http"
)

// Message reads a {"message": ...} or {"error": {"message": ...}} body and
// falls back to the status text.
func Message(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Message string `json:"message"`
		Error   *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != nil && body.Error.Message != "" {
			return body.Error.Message
		}
	}
	if t := http.StatusText(resp.StatusCode); t != "" {
		return t
	}
	return resp.Status
}
