package apierr

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func response(code int, body string) *http.Response {
	return &http.Response{StatusCode: code, Status: "x", Body: io.NopCloser(strings.NewReader(body))}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want string
	}{
		{"top-level message", 404, `{"message":"Product not found"}`, "Product not found"},
		{"nested error", 400, `{"error":{"message":"Upload preset not found"}}`, "Upload preset not found"},
		{"not json", 502, `<html>bad gateway</html>`, "Bad Gateway"},
		{"empty json", 500, `{}`, "Internal Server Error"},
		{"unknown status", 599, ``, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(response(tt.code, tt.body)))
		})
	}
}
