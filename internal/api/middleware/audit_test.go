package middleware

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAuditRequestBodyRestoresJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")

	if got := auditRequestBody(req); got != `{"a":1}` {
		t.Fatalf("unexpected audit body %q", got)
	}
	rest, _ := io.ReadAll(req.Body)
	if string(rest) != `{"a":1}` {
		t.Fatalf("body not restored: %q", rest)
	}
}

func TestAuditRequestBodySkipsMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("media", "clip.mp4")
	_, _ = part.Write([]byte("binary"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(buf.Bytes()))
	req.Header.Set("Content-Type", mw.FormDataContentType())

	got := auditRequestBody(req)
	if !strings.HasPrefix(got, "[omitted") {
		t.Fatalf("multipart body should not be logged, got %q", got)
	}
	rest, _ := io.ReadAll(req.Body)
	if len(rest) != buf.Len() {
		t.Fatal("multipart body must remain unread")
	}
}
