package api

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

var errInvalidGzip = errors.New("invalid gzip body")

// DecompressRequestBody swaps a gzip-encoded request body for a reader that
// inflates it on demand. Nothing is answered here: a body that turns out not
// to be gzip fails on read, and the dispatcher hands that failure to the
// handler with the request.
func DecompressRequestBody() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody || !gzipEncoded(req.Header) {
				return next(c)
			}
			req.Body = &inflatingBody{raw: req.Body}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)
			return next(c)
		}
	}
}

// gzipEncoded reports whether any Content-Encoding header lists gzip.
func gzipEncoded(h http.Header) bool {
	for _, v := range h.Values(echo.HeaderContentEncoding) {
		for _, coding := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(coding), "gzip") {
				return true
			}
		}
	}
	return false
}

// inflatingBody opens the gzip stream on first Read. Any decoding failure is
// sticky and wraps errInvalidGzip.
type inflatingBody struct {
	raw io.ReadCloser
	zr  *gzip.Reader
	err error
}

func (b *inflatingBody) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if b.zr == nil {
		zr, err := gzip.NewReader(b.raw)
		if err != nil {
			b.err = fmt.Errorf("%w: %v", errInvalidGzip, err)
			return 0, b.err
		}
		b.zr = zr
	}
	n, err := b.zr.Read(p)
	if err != nil && err != io.EOF {
		b.err = fmt.Errorf("%w: %v", errInvalidGzip, err)
		return n, b.err
	}
	return n, err
}

func (b *inflatingBody) Close() error {
	var err error
	if b.zr != nil {
		err = b.zr.Close()
	}
	if cerr := b.raw.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
