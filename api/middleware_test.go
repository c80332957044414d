package api

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestDecompressRequestBodyCreatesTodo(t *testing.T) {
	e, store, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/todos", bytes.NewReader(gzipped(t, `{"title":"zipped","completed":false}`)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderContentEncoding, "identity, GZIP")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if got, ok := store.Get(1); !ok || got.Title != "zipped" {
		t.Fatalf("unexpected stored todo %#v", got)
	}
}

func TestDecompressRequestBodyRejectsInvalidGzip(t *testing.T) {
	e, store, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/todos", bytes.NewReader([]byte(`{"title":"plain"}`)))
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if store.Len() != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestGzipEncoded(t *testing.T) {
	cases := []struct {
		values []string
		want   bool
	}{
		{nil, false},
		{[]string{"gzip"}, true},
		{[]string{" gzip "}, true},
		{[]string{"br, gzip"}, true},
		{[]string{"deflate"}, false},
		{[]string{"x-gzip-ish"}, false},
		{[]string{"identity", "Gzip"}, true},
	}
	for _, tc := range cases {
		h := http.Header{}
		for _, v := range tc.values {
			h.Add(echo.HeaderContentEncoding, v)
		}
		if got := gzipEncoded(h); got != tc.want {
			t.Fatalf("gzipEncoded(%q) = %v, want %v", tc.values, got, tc.want)
		}
	}
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestInflatingBodyErrorIsSticky(t *testing.T) {
	raw := &closeRecorder{Reader: bytes.NewReader([]byte("plain text"))}
	body := &inflatingBody{raw: raw}

	_, err := io.ReadAll(body)
	if !errors.Is(err, errInvalidGzip) {
		t.Fatalf("expected errInvalidGzip, got %v", err)
	}
	if _, again := body.Read(make([]byte, 4)); again != err {
		t.Fatalf("expected the same error on the next read, got %v", again)
	}
	if err := body.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !raw.closed {
		t.Fatalf("expected raw body to be closed")
	}
}

func TestInflatingBodyReadsGzip(t *testing.T) {
	raw := &closeRecorder{Reader: bytes.NewReader(gzipped(t, "hello"))}
	body := &inflatingBody{raw: raw}

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected data %q", data)
	}
	if err := body.Close(); err != nil || !raw.closed {
		t.Fatalf("close: %v closed=%v", err, raw.closed)
	}
}
